package testsupport

import (
	"path/filepath"
	"testing"

	"newsdiet/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.LLM.BaseURL = "http://127.0.0.1:1/v1"
	cfgVal.LLM.EnsureModel = false
	cfgVal.Ingest.RunOnStart = false
	cfgVal.Redis.Enabled = false
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithModelServer points the LLM settings at a fake model server.
func WithModelServer(server *ModelServer) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = server.BaseURL()
		b.cfg.LLM.Model = server.Model
	}
}

// WithCascadeDelete toggles article removal alongside feed removal.
func WithCascadeDelete(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.DeleteArticlesOnFeedRemoval = enabled
	}
}

// WithAPIToken sets the bearer token required by mutating API calls.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// BaseDir returns the temp directory backing the builder. Useful in options
// that need to place files next to the data directory.
func (b *configBuilder) BaseDir() string {
	return b.baseDir
}
