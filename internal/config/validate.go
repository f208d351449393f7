package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Scorer.validate(); err != nil {
		return fmt.Errorf("scorer: %w", err)
	}

	if c.Session.ScoringClaimTTL <= c.Scorer.Timeout {
		return fmt.Errorf("session.scoring_claim_ttl (%v) must exceed scorer.timeout (%v)",
			c.Session.ScoringClaimTTL, c.Scorer.Timeout)
	}

	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if err := c.Notify.validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("audit.retention_days must be >= 1 (got %d)", c.Audit.RetentionDays)
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be > 0 (got %d)", c.RateLimit.RequestsPerMinute)
	}

	return nil
}

func (s *ScorerConfig) validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("base_url is required")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", s.Timeout)
	}
	if s.ConcludeTimeout <= 0 {
		return fmt.Errorf("conclude_timeout must be > 0 (got %v)", s.ConcludeTimeout)
	}
	return nil
}

func (s *StorageConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Bucket == "" {
		return fmt.Errorf("bucket is required when storage is enabled")
	}
	if s.PresignTTL <= 0 {
		return fmt.Errorf("presign_ttl must be > 0 (got %v)", s.PresignTTL)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	n.KafkaBrokers = ParseList(n.KafkaBrokersRaw)
	if len(n.KafkaBrokers) > 0 && n.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when kafka_brokers is set")
	}
	if n.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", n.Timeout)
	}
	return nil
}

// ParseList splits a comma-separated string into trimmed, non-empty items.
// An empty string returns a nil slice.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		items = append(items, p)
	}
	return items
}
