package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

func replyServer(t *testing.T, handler func(calls int, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(calls, w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func writeChoice(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestClientHealthCheckSendsHeaders(t *testing.T) {
	server, _ := replyServer(t, func(_ int, w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Title") != "BechdelAI" {
			t.Errorf("missing title header")
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected request %+v", req)
		}
		writeChoice(t, w, map[string]any{"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"}})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "BechdelAI"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientUnauthorizedIsConfigurationError(t *testing.T) {
	server, calls := replyServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})
	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if *calls != 1 {
		t.Fatalf("401 should not be retried, got %d calls", *calls)
	}
}

func TestClientRequiresKeyAndPrompts(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	client = NewClient(Config{APIKey: "k"})
	if _, err := client.CompleteJSON(context.Background(), "sys", " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if client.cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.cfg.BaseURL)
	}
}

func TestClientToolCallArgumentsAndLegacyText(t *testing.T) {
	server, _ := replyServer(t, func(calls int, w http.ResponseWriter, _ *http.Request) {
		if calls == 1 {
			writeChoice(t, w, map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content":    "",
					"tool_calls": []any{map[string]any{"function": map[string]any{"arguments": `{"answer":"yes"}`}}},
				},
			})
			return
		}
		writeChoice(t, w, map[string]any{"text": "plain reply"})
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	content, err := client.CompleteJSON(context.Background(), "sys", "user")
	if err != nil || content != `{"answer":"yes"}` {
		t.Fatalf("unexpected tool call content %q err=%v", content, err)
	}
	content, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil || content != "plain reply" {
		t.Fatalf("unexpected legacy content %q err=%v", content, err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	server, calls := replyServer(t, func(calls int, w http.ResponseWriter, _ *http.Request) {
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeChoice(t, w, map[string]any{"message": map[string]any{"content": `{"ok":true}`}})
	})

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 calls, got %d", *calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientEmptyContentExhaustsRetries(t *testing.T) {
	server, calls := replyServer(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeChoice(t, w, map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}})
	})
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithRetryMaxAttempts(3),
	)
	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	var empty *emptyContentError
	if !errors.As(err, &empty) || empty.FinishReason != "length" {
		t.Fatalf("expected empty content cause, got %v", err)
	}
	if *calls != 3 {
		t.Fatalf("expected 3 calls, got %d", *calls)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := DecodeLLMJSON("Sure! Here it is: {\"answer\":\"no\"} Hope this helps.", &out); err != nil || out.Answer != "no" {
		t.Fatalf("expected embedded object to decode, got %+v err=%v", out, err)
	}
	if err := DecodeLLMJSON("   ", &out); err == nil {
		t.Fatal("expected empty payload error")
	}
	var list []int
	if err := DecodeLLMJSON("```json\n[1,2]\n```", &list); err != nil || len(list) != 2 {
		t.Fatalf("expected fenced array to decode, got %v err=%v", list, err)
	}
}
