// Package scorer is the HTTP client of the external description scorer.
// The client never retries: a failed call surfaces as a domain.UpstreamError
// and the caller decides whether to re-issue it.
package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const (
	serviceName  = "scorer"
	scorePath    = "/v1/score"
	concludePath = "/v1/conclusions"
)

// Client calls the scorer over HTTP JSON.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

// NewClient creates a scorer client from config.
func NewClient(cfg config.ScorerConfig, logger *slog.Logger) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http: c,
		log:  logger.With("adapter", serviceName),
	}
}

// Score grades a description against the image's ground truth. The
// returned score carries rates and word lists only; ids and timestamps are
// assigned by the caller.
func (c *Client) Score(ctx context.Context, text string, gt domain.GroundTruth) (domain.Score, error) {
	start := time.Now()

	var (
		result  scoreResponse
		errBody errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(scoreRequest{
			Text: text,
			GroundTruth: groundTruthPayload{
				Description:    gt.Description,
				Keywords:       nonNil(gt.Keywords),
				GuideQuestions: nonNil(gt.GuideQuestions),
			},
		}).
		SetResult(&result).
		SetError(&errBody).
		Post(scorePath)
	if err := c.check(ctx, "score", resp, err, errBody); err != nil {
		return domain.Score{}, err
	}

	rates := result.Rates.toDomain()
	if err := rates.Validate(); err != nil {
		return domain.Score{}, domain.NewUpstreamError(serviceName, fmt.Errorf("invalid rates: %w", err))
	}

	c.log.DebugContext(ctx, "scorer response",
		slog.String("op", "score"),
		slog.Float64("total", rates.Total),
		slog.Duration("duration", time.Since(start)),
	)

	return domain.Score{
		Rates:           rates,
		Hits:            nonNil(result.Hits),
		OmittedDetails:  nonNil(result.OmittedDetails),
		OmittedKeywords: nonNil(result.OmittedKeywords),
		AddedElements:   nonNil(result.AddedElements),
		Conclusion:      result.Conclusion,
	}, nil
}

// Conclude asks the scorer for technical and plain-language conclusions
// of a completed session's mean rates.
func (c *Client) Conclude(ctx context.Context, rates domain.Rates) (domain.Conclusions, error) {
	var (
		result  concludeResponse
		errBody errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(concludeRequest{Rates: ratesFromDomain(rates)}).
		SetResult(&result).
		SetError(&errBody).
		Post(concludePath)
	if err := c.check(ctx, "conclude", resp, err, errBody); err != nil {
		return domain.Conclusions{}, err
	}

	if result.Technical == "" || result.Plain == "" {
		return domain.Conclusions{}, domain.NewUpstreamError(serviceName, fmt.Errorf("empty conclusions"))
	}
	return domain.Conclusions{Technical: result.Technical, Plain: result.Plain}, nil
}

func (c *Client) check(ctx context.Context, op string, resp *resty.Response, err error, errBody errorResponse) error {
	if err != nil {
		c.log.WarnContext(ctx, "scorer request failed", slog.String("op", op), slog.String("error", err.Error()))
		return domain.NewUpstreamError(serviceName, fmt.Errorf("%s: %w", op, err))
	}
	if resp.StatusCode() != http.StatusOK {
		msg := errBody.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		c.log.WarnContext(ctx, "scorer returned error",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode()),
			slog.String("message", msg),
		)
		return domain.NewUpstreamError(serviceName, fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), msg))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
