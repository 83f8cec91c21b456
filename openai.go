package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// openAIProvider talks to the OpenAI-style chat completions endpoint. The
// credential rides in a bearer Authorization header and the system
// instruction is an in-band message.
type openAIProvider struct{}

func (p *openAIProvider) Name() string         { return "openai" }
func (p *openAIProvider) TurnModel() string    { return OpenAITurnModel }
func (p *openAIProvider) OneShotModel() string { return OpenAIOneShotModel }

func (p *openAIProvider) Complete(ctx context.Context, apiKey string, req CompletionRequest) (*RawCompletion, error) {
	// History precedes the system message, which precedes the current user
	// prompt; the identity guard stays the most recent instruction the model
	// sees before it speaks.
	messages := make([]ChatMessage, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	messages = append(messages, ChatMessage{Role: "user", Content: req.User})

	payload := openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		MaxTokens:   req.Sampling.MaxOutputTokens,
	}
	if req.JSONObject {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", OpenAIChatURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
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
		return nil, fmt.Errorf("OpenAI API 오류: %s", parseProviderError(bodyBytes, resp.StatusCode))
	}

	var apiResponse openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("응답에 선택지가 없습니다.")
	}
	if apiResponse.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("응답에 텍스트가 없습니다.")
	}

	usage := TokenUsage{
		PromptTokens:     apiResponse.Usage.PromptTokens,
		CompletionTokens: apiResponse.Usage.CompletionTokens,
		TotalTokens:      apiResponse.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &RawCompletion{
		Text:  apiResponse.Choices[0].Message.Content,
		Usage: usage,
	}, nil
}
