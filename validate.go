package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ValidateAPIKey checks a caller-supplied credential against its provider.
// Same resolution rules as turn generation: explicit type first, then key
// prefix, never a default guess. Verdicts are cached when a cache is given.
func ValidateAPIKey(ctx context.Context, apiKey, modelType string, cache *ValidationCache) KeyValidationResult {
	if strings.TrimSpace(apiKey) == "" {
		return KeyValidationResult{Error: ErrEmptyAPIKey.Error()}
	}

	provider, err := ResolveProvider(modelType, apiKey)
	if err != nil {
		return KeyValidationResult{Error: err.Error()}
	}

	if cache != nil {
		if cached, ok := cache.Get(provider.Name(), apiKey); ok {
			return cached
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()

	var result KeyValidationResult
	switch provider.Name() {
	case "anthropic":
		result = validateAnthropicKey(ctx, apiKey)
	default:
		result = validateOpenAIKey(ctx, apiKey)
	}

	if cache != nil {
		cache.Set(provider.Name(), apiKey, result)
	}
	return result
}

// validateOpenAIKey probes the models-list endpoint, which costs nothing
func validateOpenAIKey(ctx context.Context, apiKey string) KeyValidationResult {
	req, err := http.NewRequestWithContext(ctx, "GET", OpenAIModelsURL, nil)
	if err != nil {
		return KeyValidationResult{Error: fmt.Sprintf("검증 중 오류 발생: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return transportValidationError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return KeyValidationResult{Valid: true, Message: "OpenAI API 키가 유효합니다."}
	case resp.StatusCode == http.StatusUnauthorized:
		return KeyValidationResult{Error: ErrInvalidCredential.Error()}
	default:
		return KeyValidationResult{Error: fmt.Sprintf("API 요청 실패 (상태 코드: %d)", resp.StatusCode)}
	}
}

// validateAnthropicKey sends a one-token probe message, the cheapest call the
// API offers
func validateAnthropicKey(ctx context.Context, apiKey string) KeyValidationResult {
	payload := map[string]any{
		"model":      AnthropicTurnModel,
		"max_tokens": 1,
		"messages": []ChatMessage{
			{Role: "user", Content: "test"},
		},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return KeyValidationResult{Error: fmt.Sprintf("검증 중 오류 발생: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", AnthropicChatURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return KeyValidationResult{Error: fmt.Sprintf("검증 중 오류 발생: %v", err)}
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", AnthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return transportValidationError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return KeyValidationResult{Valid: true, Message: "Anthropic API 키가 유효합니다."}
	case resp.StatusCode == http.StatusUnauthorized:
		return KeyValidationResult{Error: ErrInvalidCredential.Error()}
	default:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return KeyValidationResult{Error: fmt.Sprintf("API 요청 실패: %s", parseProviderError(bodyBytes, resp.StatusCode))}
	}
}

func transportValidationError(err error) KeyValidationResult {
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
		return KeyValidationResult{Error: "요청 시간이 초과되었습니다. 네트워크를 확인해주세요."}
	}
	return KeyValidationResult{Error: fmt.Sprintf("네트워크 오류: %v", err)}
}
