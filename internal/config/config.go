package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// LLM contains connection settings for the local model server.
type LLM struct {
	BaseURL            string `toml:"base_url"`
	Model              string `toml:"model"`
	APIKey             string `toml:"api_key"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	EnsureModel        bool   `toml:"ensure_model"`
	PullTimeoutSeconds int    `toml:"pull_timeout_seconds"`
}

// Scoring contains relevance scoring knobs.
type Scoring struct {
	// MaxRetries is the number of extra model attempts made before an article
	// falls back to the degraded score.
	MaxRetries           int `toml:"max_retries"`
	PromptChars          int `toml:"prompt_chars"`
	FallbackSummaryChars int `toml:"fallback_summary_chars"`
	MaxSummarySentences  int `toml:"max_summary_sentences"`
}

// Feeds contains feed retrieval settings.
type Feeds struct {
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	UserAgent           string `toml:"user_agent"`
	ExtractFullText     bool   `toml:"extract_full_text"`
	MinBodyChars        int    `toml:"min_body_chars"`
}

// Ingest contains orchestrator scheduling and concurrency settings.
type Ingest struct {
	FetchIntervalMinutes        int    `toml:"fetch_interval_minutes"`
	FetchConcurrency            int    `toml:"fetch_concurrency"`
	InferenceConcurrency        int    `toml:"inference_concurrency"`
	DeleteArticlesOnFeedRemoval bool   `toml:"delete_articles_on_feed_removal"`
	PruneSchedule               string `toml:"prune_schedule"`
	RunOnStart                  bool   `toml:"run_on_start"`
}

// Redis contains the optional seen-key cache settings.
type Redis struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	SeenTTLHours int    `toml:"seen_ttl_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	MinScore       int    `toml:"min_score"`
	CycleFailures  bool   `toml:"cycle_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for newsdiet.
//
// Configuration sections by subsystem:
//   - Paths: data directory and API bind address
//   - LLM: local model server connection
//   - Scoring: retry and truncation limits for relevance scoring
//   - Feeds: feed download and full-text extraction
//   - Ingest: refresh interval, concurrency, and removal policy
//   - Redis: optional seen-key cache in front of the database
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and daemon log retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Scoring       Scoring       `toml:"scoring"`
	Feeds         Feeds         `toml:"feeds"`
	Ingest        Ingest        `toml:"ingest"`
	Redis         Redis         `toml:"redis"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/newsdiet/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("newsdiet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "newsdiet.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "newsdietd.lock")
}

// PIDPath returns the daemon pid file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "newsdietd.pid")
}

// SocketPath returns the daemon IPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "newsdiet.sock")
}

// FetchInterval returns the scheduled refresh interval.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.Ingest.FetchIntervalMinutes) * time.Minute
}

// FeedFetchTimeout returns the per-feed download timeout.
func (c *Config) FeedFetchTimeout() time.Duration {
	return time.Duration(c.Feeds.FetchTimeoutSeconds) * time.Second
}

// ModelTimeout returns the per-call model timeout.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SeenTTL returns the Redis seen-key expiry.
func (c *Config) SeenTTL() time.Duration {
	return time.Duration(c.Redis.SeenTTLHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
