// Package llm is a small client for OpenAI-compatible chat completion APIs.
//
// The Bechdel question answering asks the model for JSON replies through
// CompleteJSON; `deps` uses HealthCheck to verify the key and model.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies and network
// timeouts with exponential backoff (base 1s, max 10s). Retry-After is
// honoured. Context cancellation aborts retries immediately. Final errors
// carry a services marker: 401/403 map to a configuration error, other 4xx
// to a validation error.
package llm
