// Package llm provides a JSON-mode chat client for the OpenAI-compatible API
// served by Ollama, built on the openai-go SDK.
//
// The relevance scorer is the only production caller: it sends a system
// prompt describing the reader's interests plus one article and expects a JSON
// object back. Preflight uses HealthCheck to confirm the model answers.
//
// # Retry Behaviour
//
// The SDK repeats connection errors and 408/429/5xx responses (two retries by
// default, honouring Retry-After). An empty completion is requested once more
// before CompleteJSON returns *EmptyContentError. Deadline and cancellation
// errors are returned as is so callers can apply their own timeout and retry
// budget.
//
// DecodeStrictJSON decodes one object and rejects unknown fields;
// DecodeLLMJSON tolerates chatter around the object.
package llm
