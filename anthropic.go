package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// anthropicProvider talks to the Anthropic messages endpoint. The credential
// rides in an x-api-key header, the system instruction is a top-level field,
// and usage counters are named input/output rather than prompt/completion.
// The transcript rides flattened inside the user prompt; the OpenAI-shaped
// role-tagged history is not sent because the messages array must strictly
// alternate starting from a user turn.
type anthropicProvider struct{}

func (p *anthropicProvider) Name() string         { return "anthropic" }
func (p *anthropicProvider) TurnModel() string    { return AnthropicTurnModel }
func (p *anthropicProvider) OneShotModel() string { return AnthropicOneShotModel }

func (p *anthropicProvider) Complete(ctx context.Context, apiKey string, req CompletionRequest) (*RawCompletion, error) {
	payload := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.Sampling.MaxOutputTokens,
		System:    req.System,
		Messages: []ChatMessage{
			{Role: "user", Content: req.User},
		},
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", AnthropicChatURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", AnthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredential
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Anthropic API 오류: %s", parseProviderError(bodyBytes, resp.StatusCode))
	}

	var apiResponse anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResponse.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("응답에 텍스트가 없습니다.")
	}

	// Anthropic reports input/output and omits a total
	usage := TokenUsage{
		PromptTokens:     apiResponse.Usage.InputTokens,
		CompletionTokens: apiResponse.Usage.OutputTokens,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return &RawCompletion{
		Text:  text.String(),
		Usage: usage,
	}, nil
}
