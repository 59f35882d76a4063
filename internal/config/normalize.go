package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeFeeds()
	c.normalizeIngest()
	if err := c.normalizeRedis(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("NEWSDIET_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = value
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("NEWSDIET_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv("OLLAMA_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.LLM.BaseURL = value
	}
	if value, ok := os.LookupEnv("OLLAMA_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.LLM.Model = value
	}
	if value, ok := os.LookupEnv("OLLAMA_TIMEOUT"); ok {
		if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && seconds > 0 {
			c.LLM.TimeoutSeconds = seconds
		}
	}
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.PullTimeoutSeconds <= 0 {
		c.LLM.PullTimeoutSeconds = defaultLLMPullTimeoutSeconds
	}
}

func (c *Config) normalizeFeeds() {
	c.Feeds.UserAgent = strings.TrimSpace(c.Feeds.UserAgent)
	if c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = defaultFeedUserAgent
	}
}

func (c *Config) normalizeIngest() {
	if value, ok := os.LookupEnv("RSS_FETCH_INTERVAL_MINUTES"); ok {
		if minutes, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && minutes > 0 {
			c.Ingest.FetchIntervalMinutes = minutes
		}
	}
	if value, ok := os.LookupEnv("DELETE_ARTICLES_ON_FEED_REMOVAL"); ok {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			c.Ingest.DeleteArticlesOnFeedRemoval = enabled
		}
	}
	c.Ingest.PruneSchedule = strings.TrimSpace(c.Ingest.PruneSchedule)
	if c.Ingest.PruneSchedule == "" {
		c.Ingest.PruneSchedule = defaultPruneSchedule
	}
}

func (c *Config) normalizeRedis() error {
	if value, ok := os.LookupEnv("REDIS_ADDR"); ok && strings.TrimSpace(value) != "" {
		c.Redis.Addr = value
		c.Redis.Enabled = true
	}
	if c.Redis.Password == "" {
		if value, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
			c.Redis.Password = value
		}
	}
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.SeenTTLHours <= 0 {
		c.Redis.SeenTTLHours = defaultRedisSeenTTLHours
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
