package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/ai-coach/internal/config"
)

func newTestClient(baseURL string) ChatCompleter {
	return NewOpenAIClient(config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.2,
		Timeout:     5 * time.Second,
	})
}

func TestCompleteJSON(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected auth header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"ok\": true}"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.CompleteJSON(context.Background(), []Message{
		{Role: "system", Content: "instructions"},
		{Role: "user", Content: "request"},
	})
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if content != `{"ok": true}` {
		t.Errorf("Unexpected content: %q", content)
	}

	if captured["model"] != "test-model" {
		t.Errorf("Expected model in request, got %v", captured["model"])
	}
	format, _ := captured["response_format"].(map[string]interface{})
	if format["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", captured["response_format"])
	}
	if captured["temperature"] != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", captured["temperature"])
	}
}

func TestCompleteJSON_Errors(t *testing.T) {
	t.Run("Non200Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		if _, err := client.CompleteJSON(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
			t.Error("Expected an error for a non-200 response")
		}
	})

	t.Run("EmptyChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		if _, err := client.CompleteJSON(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
			t.Error("Expected an error for empty choices")
		}
	})
}
