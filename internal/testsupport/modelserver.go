package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// ModelReply is one canned chat completion answer.
type ModelReply struct {
	Content string
	Status  int
}

// ModelServer imitates the OpenAI-compatible chat completion endpoint and the
// Ollama model endpoints used at startup.
type ModelServer struct {
	*httptest.Server
	Model string

	mu       sync.Mutex
	replies  []ModelReply
	fallback ModelReply
	prompts  []string
	calls    atomic.Int64
}

// NewModelServer starts a fake model server that answers every completion
// with fallback until replies are queued.
func NewModelServer(t testing.TB, fallback string) *ModelServer {
	t.Helper()

	ms := &ModelServer{
		Model:    "test-model",
		fallback: ModelReply{Content: fallback},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", ms.complete)
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       strings.TrimPrefix(r.URL.Path, "/v1/models/"),
			"object":   "model",
			"created":  0,
			"owned_by": "library",
		})
	})
	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

// BaseURL returns the OpenAI-compatible API root.
func (ms *ModelServer) BaseURL() string {
	return ms.URL + "/v1"
}

// Queue appends replies consumed in order before the fallback applies.
func (ms *ModelServer) Queue(replies ...ModelReply) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.replies = append(ms.replies, replies...)
}

// Calls returns the number of completion requests received.
func (ms *ModelServer) Calls() int64 {
	return ms.calls.Load()
}

// Prompts returns the user prompts received so far.
func (ms *ModelServer) Prompts() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.prompts...)
}

func (ms *ModelServer) complete(w http.ResponseWriter, r *http.Request) {
	ms.calls.Add(1)
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	ms.mu.Lock()
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			ms.prompts = append(ms.prompts, msg.Content)
		}
	}
	reply := ms.fallback
	if len(ms.replies) > 0 {
		reply = ms.replies[0]
		ms.replies = ms.replies[1:]
	}
	ms.mu.Unlock()

	if reply.Status >= http.StatusBadRequest {
		http.Error(w, "model failure", reply.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   ms.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply.Content},
		}},
	})
}
