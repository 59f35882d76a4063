package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	parsed, err := url.Parse(c.LLM.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("llm.base_url must be an absolute URL, got %q", c.LLM.BaseURL)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":         c.LLM.TimeoutSeconds,
		"llm.pull_timeout_seconds":    c.LLM.PullTimeoutSeconds,
		"feeds.fetch_timeout_seconds": c.Feeds.FetchTimeoutSeconds,
	})
}

func (c *Config) validateScoring() error {
	if c.Scoring.MaxRetries < 0 {
		return errors.New("scoring.max_retries must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"scoring.prompt_chars":           c.Scoring.PromptChars,
		"scoring.fallback_summary_chars": c.Scoring.FallbackSummaryChars,
		"scoring.max_summary_sentences":  c.Scoring.MaxSummarySentences,
	})
}

func (c *Config) validateIngest() error {
	if err := ensurePositiveMap(map[string]int{
		"ingest.fetch_interval_minutes": c.Ingest.FetchIntervalMinutes,
		"ingest.fetch_concurrency":      c.Ingest.FetchConcurrency,
		"ingest.inference_concurrency":  c.Ingest.InferenceConcurrency,
	}); err != nil {
		return err
	}
	if c.Ingest.InferenceConcurrency > c.Ingest.FetchConcurrency {
		return errors.New("ingest.inference_concurrency must not exceed ingest.fetch_concurrency")
	}
	if _, err := cron.ParseStandard(c.Ingest.PruneSchedule); err != nil {
		return fmt.Errorf("ingest.prune_schedule: %w", err)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr must be set when redis.enabled is true")
	}
	if c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.MinScore < 0 || c.Notifications.MinScore > 10 {
		return errors.New("notifications.min_score must be between 0 and 10")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
