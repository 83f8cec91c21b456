package main

import (
	"context"
	"fmt"
	"strings"
)

// GenerateConversationPrompt asks a provider to synthesize the system-prompt
// template later threaded into every turn of a conversation. One-shot, runs
// before any turn. The output is a multi-paragraph template, so it gets a
// trim and a single quote-strip only, not the full utterance normalizer.
func GenerateConversationPrompt(ctx context.Context, apiKey, topic, persona1, persona2 string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrEmptyAPIKey
	}

	// No explicit provider field on this call path; the key prefix decides
	provider, err := ResolveProvider("", apiKey)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, OneShotTimeout)
	defer cancel()

	raw, err := provider.Complete(ctx, apiKey, CompletionRequest{
		Model:  provider.OneShotModel(),
		System: "당신은 대화 시뮬레이션을 위한 시스템 프롬프트를 생성하는 전문가입니다. 주어진 주제와 두 페르소나에 맞는 역할과 행동 지침을 담은 프롬프트를 생성하세요.",
		User:   promptSynthesisRequest(topic, persona1, persona2),
		Sampling: Sampling{
			Temperature:     0.7,
			TopP:            1.0,
			MaxOutputTokens: 2000,
		},
	})
	if err != nil {
		return "", err
	}

	return strings.Trim(strings.TrimSpace(raw.Text), `"'`), nil
}

// promptSynthesisRequest spells out what the generated template must and must
// not contain. Example dialogue is explicitly excluded: a template that ships
// sample lines leaks them into every subsequent turn.
func promptSynthesisRequest(topic, persona1, persona2 string) string {
	return fmt.Sprintf(`다음 정보를 바탕으로 대화 시뮬레이션을 위한 시스템 프롬프트를 생성해주세요:

주제: %s
페르소나 1 (챗봇 1): %s
페르소나 2 (챗봇 2): %s

[중요] 프롬프트 작성 요구사항:
1. 각 페르소나의 역할과 책임을 명확히 설명하세요
   - 페르소나 1이 어떤 역할을 하는지 (예: 정보 제공자, 정보 요청자, 의견 제시자 등)
   - 페르소나 2가 어떤 역할을 하는지
   - 각 페르소나가 대화에서 어떤 행동을 해야 하는지

2. 각 페르소나의 특성과 성격을 반영하세요
   - 페르소나 설명에 명시된 특성들을 대화에 어떻게 반영할지
   - 말투, 태도, 관점 등

3. 주제에 대한 대화 목적과 방향을 제시하세요
   - 이 대화의 목적이 무엇인지
   - 대화가 어떻게 진행되어야 하는지

4. 절대 실제 대화 예시나 대화 내용을 포함하지 마세요
   - "고객: 안녕하세요..." 같은 실제 대화 예시는 포함하지 마세요
   - 역할 지침과 행동 규칙만 작성하세요

5. 한국어로 작성하세요

6. 프롬프트만 반환하세요 (추가 설명이나 메타 설명 없이)

생성된 프롬프트:`, topic, persona1, persona2)
}
