// Package storage issues presigned S3 upload URLs for reference images.
// The service never handles image bytes: clients PUT directly to the bucket
// and then register the returned public URL.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const serviceName = "storage"

// S3 presigns uploads into a single bucket.
type S3 struct {
	presign    *s3.PresignClient
	bucket     string
	publicBase string
	ttl        time.Duration
	log        *slog.Logger
}

// NewS3 loads AWS credentials from the default chain and builds a presigner.
func NewS3(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3(awsCfg, cfg, logger), nil
}

func newS3(awsCfg aws.Config, cfg config.StorageConfig, logger *slog.Logger) *S3 {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3{
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		ttl:        cfg.PresignTTL,
		log:        logger.With("adapter", serviceName),
	}
}

// PresignUpload returns a time-limited PUT URL for objectKey.
func (s *S3) PresignUpload(ctx context.Context, objectKey, contentType string) (domain.UploadTicket, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.log.WarnContext(ctx, "presign failed", slog.String("key", objectKey), slog.String("error", err.Error()))
		return domain.UploadTicket{}, domain.NewUpstreamError(serviceName, fmt.Errorf("presign put %s: %w", objectKey, err))
	}

	return domain.UploadTicket{
		ObjectKey: objectKey,
		UploadURL: req.URL,
		PublicURL: s.PublicURL(objectKey),
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

// PublicURL is the address an uploaded object is served from.
func (s *S3) PublicURL(objectKey string) string {
	return s.publicBase + "/" + strings.TrimLeft(objectKey, "/")
}

// OwnsURL reports whether url points into this bucket's public space.
func (s *S3) OwnsURL(url string) bool {
	return strings.HasPrefix(url, s.publicBase+"/")
}
