package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type capturedRequest struct {
	Model          string `json:"model"`
	Temperature    *float64 `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "m",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeCompletion(w, content)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `{"ok":true}`))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/v1", Model: "qwen2.5:3b"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/v1/", Model: "qwen2.5:3b"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientSendsJSONModeRequest(t *testing.T) {
	var gotAuth string
	var got capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeCompletion(w, `{"a":1}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "llama3.2:3b"})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if got.Model != "llama3.2:3b" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json response format, got %q", got.ResponseFormat.Type)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", got.Temperature)
	}
	if gotAuth != "Bearer "+placeholderAPIKey {
		t.Fatalf("expected placeholder key, got %q", gotAuth)
	}

	keyed := NewClient(Config{BaseURL: server.URL, Model: "m", APIKey: "secret"})
	if _, err := keyed.CompleteJSON(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientEmptyContentIsRetriedOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeCompletion(w, "")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/v1", Model: "m"})
	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	var emptyErr *EmptyContentError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if emptyErr.FinishReason != "stop" || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected finish reason and snippet, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one extra request, got %d calls", calls.Load())
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After-Ms", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCompletion(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "missing"})
	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClientDeadlineIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL, Model: "m"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.CompleteJSON(ctx, "sys", "user")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestDecodeStrictJSON(t *testing.T) {
	type payload struct {
		Quality string `json:"quality"`
	}
	var p payload
	if err := DecodeStrictJSON("```json\n{\"quality\":\"high\"}\n```", &p); err != nil || p.Quality != "high" {
		t.Fatalf("expected fenced payload to decode, got %+v err=%v", p, err)
	}
	if err := DecodeStrictJSON(`{"quality":"high","extra":1}`, &p); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
	if err := DecodeStrictJSON(`Sure! {"quality":"high"}`, &p); err == nil {
		t.Fatal("expected chatter before the object to be rejected")
	}
	if err := DecodeStrictJSON(`{"quality":"high"} trailing`, &p); err == nil {
		t.Fatal("expected trailing data to be rejected")
	}
	if err := DecodeStrictJSON("  ", &p); err == nil {
		t.Fatal("expected empty payload to be rejected")
	}
}

func TestDecodeLLMJSONExtractsObject(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(`Here you go: {"ok": true} thanks`, &parsed); err != nil || !parsed.OK {
		t.Fatalf("expected lenient decode, got %+v err=%v", parsed, err)
	}
}
