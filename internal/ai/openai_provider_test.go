package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func replyWith(content string) chatResponse {
	return chatResponse{Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}}}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, replyWith(`{"score":80}`))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", false, client)
	got, err := provider.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"score":80}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", false, client)
	if _, err := provider.Complete(context.Background(), "classify this"); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", false, client)
	if _, err := provider.Complete(context.Background(), "classify this"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", false, client)
	if _, err := provider.Complete(context.Background(), "classify this"); err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_ErrorEnvelope(t *testing.T) {
	body := map[string]any{"error": map[string]string{"message": "bad key", "type": "auth"}}
	srv, client := makeTestServer(t, http.StatusOK, body)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", false, client)
	if _, err := provider.Complete(context.Background(), "classify this"); err == nil {
		t.Fatal("expected error for error envelope")
	}
}

func TestComplete_SetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(replyWith("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "test-model", false, srv.Client())
	_, _ = provider.Complete(context.Background(), "hello")

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
}

func TestComplete_StructuredOutputIsOptIn(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = nil
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(replyWith("{}"))
	}))
	defer srv.Close()

	plain := NewOpenAIProvider(srv.URL, "key", "llama-3.1-8b-instant", false, srv.Client())
	_, _ = plain.Complete(context.Background(), "classify this")
	if _, ok := gotReq["response_format"]; ok {
		t.Error("response_format must be omitted when structured output is off")
	}

	structured := NewOpenAIProvider(srv.URL, "key", "gpt-4o-mini", true, srv.Client())
	_, _ = structured.Complete(context.Background(), "classify this")
	rf, ok := gotReq["response_format"].(map[string]any)
	if !ok {
		t.Fatalf("expected response_format, got %v", gotReq)
	}
	if rf["type"] != "json_schema" {
		t.Errorf("response_format.type = %v, want json_schema", rf["type"])
	}
	schema, _ := rf["json_schema"].(map[string]any)
	if schema["name"] != "job_classification" {
		t.Errorf("json_schema.name = %v, want job_classification", schema["name"])
	}
	if gotReq["temperature"] != float64(0) {
		t.Errorf("temperature = %v, want 0", gotReq["temperature"])
	}
}
