package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client at a stub completions endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(nil, server.URL, "test-key", "chat-model", "vision-model", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestCompleteParsesToolCalls(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "query_data",
							"arguments": `{"query":"SELECT 1"}`,
						},
					}},
				},
			}},
		})
	})

	completion, err := client.Complete(context.Background(),
		[]Message{SystemMessage("sys"), UserMessage("question")},
		[]Tool{{Type: "function", Function: ToolFunction{Name: "query_data"}}},
		0.3,
	)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completion.FinishReason != FinishReasonToolCalls {
		t.Fatalf("expected finish reason tool_calls, got %s", completion.FinishReason)
	}
	if len(completion.Message.ToolCalls) != 1 || completion.Message.ToolCalls[0].Function.Name != "query_data" {
		t.Fatalf("unexpected tool calls: %+v", completion.Message.ToolCalls)
	}

	if captured.Model != "chat-model" {
		t.Errorf("expected chat model, got %s", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", captured.Temperature)
	}
	if len(captured.Tools) != 1 {
		t.Errorf("expected declared tools forwarded, got %d", len(captured.Tools))
	}
}

func TestCompleteRequiresMessages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := client.Complete(context.Background(), nil, nil, 0.3); err == nil {
		t.Fatal("expected an error for empty messages")
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})
	if _, err := client.Complete(context.Background(), []Message{UserMessage("q")}, nil, 0.3); err == nil {
		t.Fatal("expected an error from a non-2xx response")
	}
}

func TestDescribeImageUsesVisionModel(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": "a winding coastal road",
				},
			}},
		})
	})

	description, err := client.DescribeImage(context.Background(), "https://img.example/route.jpg")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if description != "a winding coastal road" {
		t.Fatalf("unexpected description %q", description)
	}
	if captured.Model != "vision-model" {
		t.Errorf("expected vision model, got %s", captured.Model)
	}
	if captured.MaxTokens != 300 {
		t.Errorf("expected max_tokens 300, got %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(captured.Messages))
	}
}
