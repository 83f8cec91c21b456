package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Caller-facing error taxonomy. These strings travel to the front-end, so
// they stay in the product language.
var (
	// ErrInvalidCredential marks an HTTP 401 from a provider: non-retryable,
	// the UI should prompt for a new key
	ErrInvalidCredential = errors.New("API 키가 유효하지 않거나 권한이 없습니다.")

	// ErrUnsupportedProvider is returned when neither the explicit provider
	// field nor the key prefix resolves. Never silently fall back to a guess.
	ErrUnsupportedProvider = errors.New("지원하지 않는 모델 타입입니다. API 키 형식을 확인해주세요.")

	// ErrGoogleNotSupported: Google-style keys are recognized but not served
	ErrGoogleNotSupported = errors.New("Google API는 아직 지원되지 않습니다.")

	// ErrEmptyAPIKey rejects a blank credential before any provider call
	ErrEmptyAPIKey = errors.New("API 키가 비어있습니다.")
)

// Provider is one chat-completion backend. Adding a provider means adding one
// implementation, not threading new branches through every call site.
type Provider interface {
	// Name is the explicit provider selector value ("openai", "anthropic")
	Name() string

	// TurnModel is the model used for multi-turn dialogue generation
	TurnModel() string

	// OneShotModel is the model used for evaluation and prompt synthesis
	OneShotModel() string

	// Complete performs one chat call with the caller's credential and maps
	// the reply onto a provider-agnostic completion
	Complete(ctx context.Context, apiKey string, req CompletionRequest) (*RawCompletion, error)
}

var (
	providerOpenAI    Provider = &openAIProvider{}
	providerAnthropic Provider = &anthropicProvider{}
)

// Provider credential prefixes. Anthropic keys share the OpenAI "sk-" prefix,
// so the longer prefix must be checked first.
const (
	anthropicKeyPrefix = "sk-ant-"
	openAIKeyPrefix    = "sk-"
	googleKeyPrefix    = "AIza"
)

// ResolveProvider picks the provider for a request. The explicit field always
// wins, including when it contradicts the key prefix; only an empty or
// unknown field falls through to prefix sniffing.
func ResolveProvider(modelType, apiKey string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(modelType)) {
	case "openai":
		return providerOpenAI, nil
	case "anthropic":
		return providerAnthropic, nil
	case "google":
		return nil, ErrGoogleNotSupported
	}

	switch {
	case strings.HasPrefix(apiKey, anthropicKeyPrefix):
		return providerAnthropic, nil
	case strings.HasPrefix(apiKey, googleKeyPrefix):
		return nil, ErrGoogleNotSupported
	case strings.HasPrefix(apiKey, openAIKeyPrefix):
		return providerOpenAI, nil
	}

	return nil, ErrUnsupportedProvider
}

// parseProviderError extracts a human-readable message from a provider error
// body, falling back to the raw body, then to the bare status code.
func parseProviderError(body []byte, statusCode int) string {
	var parsed providerErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}

	raw := strings.TrimSpace(string(body))
	if raw != "" {
		if len(raw) > 200 {
			cut := 200
			for cut > 0 && !utf8.RuneStart(raw[cut]) {
				cut--
			}
			raw = raw[:cut]
		}
		return raw
	}

	return fmt.Sprintf("상태 코드: %d", statusCode)
}
