package main

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

// TestValidateAPIKey tests key validation against mock provider endpoints
func TestValidateAPIKey(t *testing.T) {
	t.Run("openai key accepted on 200", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "GET" {
				t.Errorf("method = %s, want GET", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer sk-good" {
				t.Errorf("Authorization = %q, want bearer key", got)
			}
			w.WriteHeader(http.StatusOK)
		}
		mockServer := MockProviderServer(t, handler)
		defer mockServer.Close()
		WithOpenAIModelsURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-good", "", nil)

		if !result.Valid {
			t.Fatalf("expected valid key, got error: %s", result.Error)
		}
		if result.Message != "OpenAI API 키가 유효합니다." {
			t.Errorf("Message = %q", result.Message)
		}
	})

	t.Run("openai key rejected on 401", func(t *testing.T) {
		mockServer := MockProviderServer(t, CreateMockErrorHandler(http.StatusUnauthorized, "invalid key"))
		defer mockServer.Close()
		WithOpenAIModelsURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-bad", "", nil)

		if result.Valid {
			t.Fatal("expected invalid key")
		}
		if result.Error != ErrInvalidCredential.Error() {
			t.Errorf("Error = %q, want credential message", result.Error)
		}
	})

	t.Run("openai unexpected status surfaced", func(t *testing.T) {
		mockServer := MockProviderServer(t, CreateMockErrorHandler(http.StatusServiceUnavailable, "maintenance"))
		defer mockServer.Close()
		WithOpenAIModelsURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-test", "", nil)

		if result.Valid {
			t.Fatal("expected invalid verdict")
		}
		if !strings.Contains(result.Error, "503") {
			t.Errorf("Error = %q, want status code included", result.Error)
		}
	})

	t.Run("anthropic probe sends version header and accepts 200", func(t *testing.T) {
		var captured map[string]any
		handler := func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("x-api-key"); got != "sk-ant-good" {
				t.Errorf("x-api-key = %q", got)
			}
			if got := r.Header.Get("anthropic-version"); got != AnthropicVersion {
				t.Errorf("anthropic-version = %q, want %q", got, AnthropicVersion)
			}
			CaptureRequestBody(t, r, &captured)
			w.WriteHeader(http.StatusOK)
		}
		mockServer := MockProviderServer(t, handler)
		defer mockServer.Close()
		WithAnthropicChatURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-ant-good", "", nil)

		if !result.Valid {
			t.Fatalf("expected valid key, got error: %s", result.Error)
		}
		if captured["max_tokens"] != float64(1) {
			t.Errorf("max_tokens = %v, want 1", captured["max_tokens"])
		}
	})

	t.Run("anthropic key rejected on 401", func(t *testing.T) {
		mockServer := MockProviderServer(t, CreateMockErrorHandler(http.StatusUnauthorized, "invalid x-api-key"))
		defer mockServer.Close()
		WithAnthropicChatURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-ant-bad", "", nil)

		if result.Valid {
			t.Fatal("expected invalid key")
		}
		if result.Error != ErrInvalidCredential.Error() {
			t.Errorf("Error = %q, want credential message", result.Error)
		}
	})

	t.Run("empty key rejected without a call", func(t *testing.T) {
		result := ValidateAPIKey(context.Background(), "  ", "", nil)
		if result.Valid {
			t.Fatal("expected invalid verdict")
		}
		if result.Error != ErrEmptyAPIKey.Error() {
			t.Errorf("Error = %q, want empty-key message", result.Error)
		}
	})

	t.Run("unresolvable key rejected without a call", func(t *testing.T) {
		result := ValidateAPIKey(context.Background(), "not-a-key", "", nil)
		if result.Valid {
			t.Fatal("expected invalid verdict")
		}
		if result.Error != ErrUnsupportedProvider.Error() {
			t.Errorf("Error = %q, want unsupported-provider message", result.Error)
		}
	})

	t.Run("explicit model type overrides key prefix", func(t *testing.T) {
		// An sk- key routed to anthropic by the explicit field
		mockServer := MockProviderServer(t, CreateMockErrorHandler(http.StatusUnauthorized, "wrong provider"))
		defer mockServer.Close()
		WithAnthropicChatURL(t, mockServer.URL)

		result := ValidateAPIKey(context.Background(), "sk-openai-shaped", "anthropic", nil)

		if result.Valid {
			t.Fatal("expected invalid verdict from the anthropic probe")
		}
		if result.Error != ErrInvalidCredential.Error() {
			t.Errorf("Error = %q, want credential message", result.Error)
		}
	})

	t.Run("verdicts cached per provider and key", func(t *testing.T) {
		calls := 0
		handler := func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}
		mockServer := MockProviderServer(t, handler)
		defer mockServer.Close()
		WithOpenAIModelsURL(t, mockServer.URL)

		cache := NewValidationCache(KeyValidationTTL)

		first := ValidateAPIKey(context.Background(), "sk-cached", "", cache)
		second := ValidateAPIKey(context.Background(), "sk-cached", "", cache)

		if !first.Valid || !second.Valid {
			t.Fatal("both validations should succeed")
		}
		if calls != 1 {
			t.Errorf("provider called %d times, want 1 (second hit cached)", calls)
		}

		ValidateAPIKey(context.Background(), "sk-other", "", cache)
		if calls != 2 {
			t.Errorf("provider called %d times, want 2 (different key misses)", calls)
		}
	})
}
