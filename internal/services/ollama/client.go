// Package ollama checks that the configured model is present on the Ollama
// server and pulls it when missing.
//
// Model lookups go through the OpenAI-compatible /v1/models endpoint; pulling
// has no OpenAI equivalent and uses Ollama's native /api/pull.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"newsdiet/internal/logging"
	"newsdiet/internal/services"
)

const placeholderAPIKey = "ollama"

// Config describes the model server connection.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	PullTimeout time.Duration
}

// Client talks to one Ollama server about one model.
type Client struct {
	api        openai.Client
	httpClient *http.Client
	nativeBase string
	model      string
	pullWait   time.Duration
	logger     *slog.Logger
}

// New constructs a Client. BaseURL is the OpenAI-compatible root ending in /v1.
func New(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = placeholderAPIKey
	}
	httpClient := &http.Client{}
	requestOpts := append([]option.RequestOption{
		option.WithBaseURL(base + "/"),
		option.WithAPIKey(key),
		option.WithHTTPClient(httpClient),
	}, opts...)
	pullWait := cfg.PullTimeout
	if pullWait <= 0 {
		pullWait = 10 * time.Minute
	}
	return &Client{
		api:        openai.NewClient(requestOpts...),
		httpClient: httpClient,
		nativeBase: strings.TrimSuffix(base, "/v1"),
		model:      strings.TrimSpace(cfg.Model),
		pullWait:   pullWait,
		logger:     logging.NewComponentLogger(logger, "ollama"),
	}
}

// HasModel reports whether the server already serves the configured model.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	if c.model == "" {
		return false, services.Wrap(services.ErrConfiguration, "ollama", "lookup model", "model name is empty", nil)
	}
	_, err := c.api.Models.Get(ctx, c.model)
	if err == nil {
		return true, nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, services.Wrap(services.ErrExternalTool, "ollama", "lookup model", c.model, err)
}

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Pull downloads the configured model and blocks until Ollama reports success.
func (c *Client) Pull(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pullWait)
	defer cancel()

	body, err := json.Marshal(pullRequest{Model: c.model, Stream: false})
	if err != nil {
		return fmt.Errorf("encode pull request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nativeBase+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ollama", "pull model", c.model, err)
		}
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model", c.model, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	}
	var parsed pullResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model", "decode response", err)
	}
	if parsed.Error != "" {
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model", parsed.Error, nil)
	}
	if parsed.Status != "success" {
		return services.Wrap(services.ErrExternalTool, "ollama", "pull model",
			fmt.Sprintf("unexpected status %q", parsed.Status), nil)
	}
	return nil
}

// Ensure pulls the model when the server does not have it. It reports whether
// a pull happened.
func (c *Client) Ensure(ctx context.Context) (bool, error) {
	present, err := c.HasModel(ctx)
	if err != nil {
		return false, err
	}
	if present {
		c.logger.Info("model available", logging.String("model", c.model))
		return false, nil
	}
	c.logger.Info("model missing; pulling",
		logging.String("model", c.model),
		logging.Duration("timeout", c.pullWait),
		logging.String(logging.FieldEventType, "model_pull_started"),
	)
	started := time.Now()
	if err := c.Pull(ctx); err != nil {
		return false, err
	}
	c.logger.Info("model pulled",
		logging.String("model", c.model),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "model_pull_completed"),
	)
	return true, nil
}
