package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockProviderServer creates a test server wrapping the given handler
func MockProviderServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

// CreateMockOpenAIHandler returns a handler that responds like the OpenAI
// chat completions endpoint with the given content
func CreateMockOpenAIHandler(t *testing.T, content string) http.HandlerFunc {
	return CreateMockOpenAIHandlerWithUsage(t, content, 100, 20)
}

// CreateMockOpenAIHandlerWithUsage responds with content and usage counters
func CreateMockOpenAIHandlerWithUsage(t *testing.T, content string, promptTokens, completionTokens int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// CreateMockAnthropicHandler responds like the Anthropic messages endpoint.
// No total in the usage block: the client computes it by summation.
func CreateMockAnthropicHandler(t *testing.T, content string, inputTokens, outputTokens int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": content},
			},
			"usage": map[string]any{
				"input_tokens":  inputTokens,
				"output_tokens": outputTokens,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// CreateMockErrorHandler responds with a provider-style error envelope
func CreateMockErrorHandler(statusCode int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "test_error",
				"message": message,
			},
		})
	}
}

// CaptureRequestBody decodes the request body a mock handler received
func CaptureRequestBody(t *testing.T, r *http.Request, out any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode captured request body: %v", err)
	}
}

// WithOpenAIChatURL points the OpenAI chat endpoint at a mock server for the
// duration of the test
func WithOpenAIChatURL(t *testing.T, url string) {
	t.Helper()
	old := OpenAIChatURL
	OpenAIChatURL = url
	t.Cleanup(func() { OpenAIChatURL = old })
}

// WithAnthropicChatURL points the Anthropic endpoint at a mock server
func WithAnthropicChatURL(t *testing.T, url string) {
	t.Helper()
	old := AnthropicChatURL
	AnthropicChatURL = url
	t.Cleanup(func() { AnthropicChatURL = old })
}

// WithOpenAIModelsURL points the key-validation probe at a mock server
func WithOpenAIModelsURL(t *testing.T, url string) {
	t.Helper()
	old := OpenAIModelsURL
	OpenAIModelsURL = url
	t.Cleanup(func() { OpenAIModelsURL = old })
}

// WithEvaluationAPIKey sets the server-side judge key for the test
func WithEvaluationAPIKey(t *testing.T, key string) {
	t.Helper()
	old := EvaluationAPIKey
	EvaluationAPIKey = key
	t.Cleanup(func() { EvaluationAPIKey = old })
}
