package main

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Timeout message surfaced for any outbound call that exhausts its budget
const timeoutErrorMessage = "요청 시간이 초과되었습니다."

// Surfaced when a provider replies successfully but with no usable text
const emptyResponseMessage = "응답이 비어있습니다."

// GenerateTurn produces one utterance: resolve the provider, assemble the
// prompt, perform the single outbound call, normalize the reply. Every
// failure comes back as a failed TurnResult, never as a fault.
func GenerateTurn(ctx context.Context, req TurnRequest) TurnResult {
	if strings.TrimSpace(req.APIKey) == "" {
		return failedTurn(ErrEmptyAPIKey.Error())
	}

	provider, err := ResolveProvider(req.Provider, req.APIKey)
	if err != nil {
		return failedTurn(err.Error())
	}

	req.Sampling = clampSampling(req.Sampling)
	prompt := BuildTurnPrompt(req)

	ctx, cancel := context.WithTimeout(ctx, TurnTimeout)
	defer cancel()

	raw, err := provider.Complete(ctx, req.APIKey, CompletionRequest{
		Model:    provider.TurnModel(),
		System:   prompt.System,
		History:  prompt.History,
		User:     prompt.User,
		Sampling: req.Sampling,
	})
	if err != nil {
		log.Printf("turn generation failed: provider=%s bot=%d err=%v", provider.Name(), req.BotNumber, err)
		return failedTurn(turnErrorMessage(err))
	}

	// Normalization can strip a reply down to nothing, e.g. a completion
	// that was only a speaker label. A success carries text, always.
	text := NormalizeUtterance(raw.Text)
	if text == "" {
		log.Printf("turn generation produced empty text: provider=%s bot=%d raw=%q", provider.Name(), req.BotNumber, raw.Text)
		return failedTurn(emptyResponseMessage)
	}

	usage := raw.Usage
	return TurnResult{
		Success: true,
		Text:    text,
		Usage:   &usage,
	}
}

// clampSampling replaces out-of-range or missing values with defaults.
// Invalid sampling never rejects a request.
func clampSampling(s Sampling) Sampling {
	if s.Temperature < 0.0 || s.Temperature > 2.0 {
		s.Temperature = DefaultTemperature
	}
	if s.TopP < 0.0 || s.TopP > 1.0 {
		s.TopP = DefaultTopP
	}
	if s.MaxOutputTokens <= 0 {
		s.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return s
}

// turnErrorMessage maps a provider call failure onto the caller-facing string
func turnErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return ErrInvalidCredential.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutErrorMessage
	default:
		return err.Error()
	}
}

func failedTurn(message string) TurnResult {
	return TurnResult{Success: false, Error: message}
}
