package scoring

import (
	"context"
	"errors"
	"strings"

	"newsdiet/internal/services/llm"
	"newsdiet/internal/store"
)

// Assessment is the validated model answer.
type Assessment struct {
	MatchedTags []string `json:"matched_tags"`
	Quality     string   `json:"quality"`
	Summary     string   `json:"summary"`
	Excluded    bool     `json:"excluded"`
}

// Model produces an assessment for one article. Implementations return
// *ModelError for classified failures.
type Model interface {
	Assess(ctx context.Context, req Request) (Assessment, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req Request) (Assessment, error)

// Assess calls f.
func (f ModelFunc) Assess(ctx context.Context, req Request) (Assessment, error) {
	return f(ctx, req)
}

// Completer is the chat completion call used by LLMModel.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMModel implements Model over an OpenAI-compatible chat client.
type LLMModel struct {
	client      Completer
	promptChars int
}

// NewLLMModel wraps client. promptChars bounds the article text sent.
func NewLLMModel(client Completer, promptChars int) *LLMModel {
	return &LLMModel{client: client, promptChars: promptChars}
}

var _ Completer = (*llm.Client)(nil)

// Assess sends the prompt and strictly validates the JSON response.
func (m *LLMModel) Assess(ctx context.Context, req Request) (Assessment, error) {
	content, err := m.client.CompleteJSON(ctx, systemPrompt, buildUserPrompt(req, m.promptChars))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Assessment{}, &ModelError{Kind: KindTimeout, Err: err}
		}
		return Assessment{}, &ModelError{Kind: KindUnavailable, Err: err}
	}
	return ParseAssessment(content)
}

// ParseAssessment decodes and validates a model response. Unknown fields,
// an unknown quality label, and an empty summary are parse errors.
func ParseAssessment(content string) (Assessment, error) {
	var out Assessment
	if err := llm.DecodeStrictJSON(content, &out); err != nil {
		return Assessment{}, &ModelError{Kind: KindParse, Err: err}
	}
	out.Quality = strings.ToLower(strings.TrimSpace(out.Quality))
	switch out.Quality {
	case store.QualityLow, store.QualityMedium, store.QualityHigh:
	default:
		return Assessment{}, parseError("invalid quality %q", out.Quality)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return Assessment{}, parseError("empty summary")
	}
	return out, nil
}
