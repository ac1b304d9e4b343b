package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chatReply(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		chatReply(t, w, map[string]any{"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestCompleteJSONSendsPromptsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "google/gemini-3-flash-preview" || len(req.Messages) != 2 || req.Messages[1].Content != "transcript text" {
			t.Fatalf("unexpected request %+v", req)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Fatalf("expected json response format, got %v", req.ResponseFormat)
		}
		if r.Header.Get("X-Title") != "reelcut" || r.Header.Get("HTTP-Referer") != "https://example.test" {
			t.Fatalf("missing attribution headers: %v", r.Header)
		}
		chatReply(t, w, map[string]any{"message": map[string]any{"content": `{"title":"Hi"}`}})
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "google/gemini-3-flash-preview",
		Referer: "https://example.test",
		Title:   "reelcut",
	})
	content, err := client.CompleteJSON(context.Background(), "system", "transcript text")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"title":"Hi"}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONAcceptsToolCallsAndLegacyShapes(t *testing.T) {
	cases := map[string]map[string]any{
		"tool_calls": {
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"content": "",
				"tool_calls": []any{map[string]any{
					"type":     "function",
					"function": map[string]any{"name": "metadata", "arguments": `{"title":"T"}`},
				}},
			},
		},
		"delta": {"delta": map[string]any{"content": `{"title":"T"}`}},
		"text":  {"text": `{"title":"T"}`},
	}
	for name, choice := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				chatReply(t, w, choice)
			}))
			defer server.Close()
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
			content, err := client.CompleteJSON(context.Background(), "system", "user")
			if err != nil {
				t.Fatalf("CompleteJSON returned error: %v", err)
			}
			var parsed struct {
				Title string `json:"title"`
			}
			if err := DecodeJSON(content, &parsed); err != nil || parsed.Title != "T" {
				t.Fatalf("unexpected payload %q (%v)", content, err)
			}
		})
	}
}

func TestCompleteJSONEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"}, WithRetryMaxAttempts(1))
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected empty content error")
	}
	if !strings.Contains(err.Error(), `finish_reason="length"`) || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected diagnostic detail, got %v", err)
	}
}

func TestCompleteJSONRequiresInputs(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.CompleteJSON(context.Background(), "", "user"); err == nil {
		t.Fatal("expected system prompt error")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		chatReply(t, w, map[string]any{"message": map[string]any{"content": `{"ok":true}`}})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"}, WithSleeper(func(time.Duration) {}))
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(time.Second, 3*time.Second),
		WithRetryMaxAttempts(4),
	)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "failed after 4 attempts") {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("unexpected sleeps %v", slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestDecodeJSONHandlesFences(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	if err := DecodeJSON("```json\n{\"title\":\"Fenced\"}\n```", &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if parsed.Title != "Fenced" {
		t.Fatalf("unexpected title %q", parsed.Title)
	}
	if err := DecodeJSON("no json here", &parsed); err == nil {
		t.Fatal("expected error for prose without json")
	}
}

func TestDecodeJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	if err := DecodeJSON("Sure! Here you go: {\"title\":\"X\"} hope it helps", &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if parsed.Title != "X" {
		t.Fatalf("unexpected title %q", parsed.Title)
	}
	if err := DecodeJSON("   ", &parsed); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
