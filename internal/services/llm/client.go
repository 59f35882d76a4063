package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxRetries  = 2
	defaultEmptyRetry  = 1
	placeholderAPIKey  = "ollama"
	healthSystemPrompt = "You must respond with JSON only."
)

// Config captures the runtime settings required to talk to the model server.
type Config struct {
	// BaseURL is the OpenAI-compatible API root, e.g. http://ollama:11434/v1.
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
}

// Client sends JSON-mode chat completions to an OpenAI-compatible server.
type Client struct {
	api        openai.Client
	model      string
	timeout    time.Duration
	emptyRetry int
}

type settings struct {
	httpClient *http.Client
	maxRetries int
	emptyRetry int
	extra      []option.RequestOption
}

// Option customizes the client.
type Option func(*settings)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithMaxRetries sets how many times the SDK repeats a request after a
// connection error, 408, 429, or 5xx response. Zero disables retries.
func WithMaxRetries(retries int) Option {
	return func(s *settings) {
		if retries >= 0 {
			s.maxRetries = retries
		}
	}
}

// WithEmptyContentRetries sets how many extra requests are made when the
// server answers with an empty message.
func WithEmptyContentRetries(retries int) Option {
	return func(s *settings) {
		if retries >= 0 {
			s.emptyRetry = retries
		}
	}
}

// WithRequestOptions appends raw SDK options.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(s *settings) {
		s.extra = append(s.extra, opts...)
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	s := settings{maxRetries: defaultMaxRetries, emptyRetry: defaultEmptyRetry}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		// Callers bound each request with a context deadline; this only
		// guards a context without one.
		s.httpClient = &http.Client{Timeout: timeout + 5*time.Second}
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		// Ollama ignores the key but the SDK always sends one.
		key = placeholderAPIKey
	}
	requestOpts := append([]option.RequestOption{
		option.WithBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + "/"),
		option.WithAPIKey(key),
		option.WithHTTPClient(s.httpClient),
		option.WithMaxRetries(s.maxRetries),
	}, s.extra...)

	return &Client{
		api:        openai.NewClient(requestOpts...),
		model:      strings.TrimSpace(cfg.Model),
		timeout:    timeout,
		emptyRetry: s.emptyRetry,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Timeout returns the per-request timeout callers should apply.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// EmptyContentError reports a completion without any message content.
type EmptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("llm complete: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.FinishReason, e.Refusal, e.Snippet)
}

// StatusCode returns the HTTP status of a failed API call, or 0 when err did
// not come from an HTTP response.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// CompleteJSON issues a JSON-only chat completion request with the supplied
// prompts and returns the raw content produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", errors.New("llm complete: system prompt required")
	case userPrompt == "":
		return "", errors.New("llm complete: user prompt required")
	case c.model == "":
		return "", errors.New("llm complete: model required")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.emptyRetry; attempt++ {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("llm complete: %w", err)
		}
		if content := completionContent(completion); content != "" {
			return content, nil
		}
		lastErr = emptyContent(completion)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// HealthCheck issues a tiny completion to verify the model answers with JSON.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, healthSystemPrompt, `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func completionContent(completion *openai.ChatCompletion) string {
	if completion == nil {
		return ""
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
	}
	return ""
}

func emptyContent(completion *openai.ChatCompletion) *EmptyContentError {
	err := &EmptyContentError{Snippet: "<empty>"}
	if completion == nil {
		return err
	}
	err.Snippet = summarizePayloadSnippet(completion.RawJSON())
	for _, choice := range completion.Choices {
		if err.FinishReason == "" {
			err.FinishReason = choice.FinishReason
		}
		if err.Refusal == "" {
			err.Refusal = strings.TrimSpace(choice.Message.Refusal)
		}
	}
	return err
}
