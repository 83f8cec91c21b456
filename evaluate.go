package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EvaluateConversation scores a finished transcript with an LLM-as-judge
// call. One-shot, not turn-based. A reply that is not valid JSON is a
// distinct failure from a transport error and carries the raw content for
// diagnostics.
func EvaluateConversation(ctx context.Context, req EvaluateRequest) EvaluateOutcome {
	if EvaluationAPIKey == "" {
		return EvaluateOutcome{Error: "Server configuration error: OPENAI_API_KEY not found."}
	}

	provider, err := ResolveProvider("", EvaluationAPIKey)
	if err != nil {
		return EvaluateOutcome{Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, OneShotTimeout)
	defer cancel()

	raw, err := provider.Complete(ctx, EvaluationAPIKey, CompletionRequest{
		Model:  provider.OneShotModel(),
		System: "당신은 대화형 AI 전문 분석가입니다. 주어진 대화를 분석하고 JSON 형식으로 평가 결과를 출력하세요.",
		User:   evaluationRubric(req),
		Sampling: Sampling{
			// Low temperature for consistent evaluation
			Temperature:     0.2,
			TopP:            1.0,
			MaxOutputTokens: 1000,
		},
		// Honored by the OpenAI-style provider; fence stripping below covers
		// providers without a JSON-constrained mode
		JSONObject: true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return EvaluateOutcome{Error: timeoutErrorMessage}
		}
		return EvaluateOutcome{Error: err.Error()}
	}

	content := stripCodeFence(raw.Text)

	var result EvaluationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return EvaluateOutcome{
			Error:      "Failed to parse JSON response from LLM",
			RawContent: raw.Text,
		}
	}

	return EvaluateOutcome{Success: true, Result: &result}
}

// evaluationRubric renders the fixed three-criteria rubric over the topic,
// both personas, and the transcript flattened to "speaker: text" lines.
func evaluationRubric(req EvaluateRequest) string {
	var dialogue strings.Builder
	for _, entry := range req.DialogueLog {
		speaker := entry.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		dialogue.WriteString(speaker)
		dialogue.WriteString(": ")
		dialogue.WriteString(entry.Text)
		dialogue.WriteString("\n")
	}

	return fmt.Sprintf(`### 챗봇 간 대화(Self-Play) 품질 검증 프롬프트

당신은 두 AI 챗봇 간의 대화 데이터를 검증하고 품질을 측정하는 대화형 AI 전문 분석가(Dialogue Analyst)입니다. 아래의 지침, 평가 척도, 기준을 숙지하여 주어진 대화 로그를 객관적으로 평가하십시오.

### 1. 입력 데이터

- 대화 주제: %s
- 페르소나 A: %s
- 페르소나 B: %s
- 대화 내용:
%s

### 2. 핵심 평가 척도 (Evaluation Metrics)

1. 맥락 유지 및 흐름 (Context Flow): 이전 발화의 내용을 정확히 기억하고 이어받고 있는가? 대화가 끊기거나 급작스럽게 화제가 전환되지 않는가?
2. 페르소나 일관성 (Persona Consistency): 각 챗봇이 부여된 역할(성격, 말투, 지식 수준)을 대화 시작부터 끝까지 일관되게 유지하는가? 상대방의 페르소나에 맞춰 적절히 반응하는가?
3. 주제 집중도 (Topic Adherence): 대화가 주어진 주제에서 벗어나지 않고, 밀도 있게 논의가 진행되는가?

### 3. 평가 원칙

- 전체론적 평가: 특정 발화 하나가 아닌, 대화 전체의 흐름을 보고 판단합니다.
- 엄격한 페르소나 검증: 챗봇이 자신의 역할을 망각하고 기계적인 답변을 하거나, 상대방의 말투를 무분별하게 따라 하는 경우 엄격히 감점합니다. 페르소나 혼동이 한 번이라도 감지되면 페르소나 일관성 점수는 반드시 1점입니다.
- 환각 감지: 대화 맥락과 상관없는 거짓 정보를 생성하거나, 앞뒤 말이 모순되는 경우 최하점을 부여합니다.

### 4. 출력 준수사항 (Strict Rules)

- 점수 표기: 반드시 1~5 범위의 정수만 사용합니다.
- 설명(reason)에는 점수를 직접 언급하거나 암시하는 표현을 사용하지 마십시오. 3가지 핵심 평가 척도 중 잘된 점과 부족한 점을 명확히 지적하는 객관적 분석문으로만 작성하십시오.
- 주어진 출력 형식 외에 사견이나 추가 정보를 포함하지 마십시오.

### 5. 평가 점수 기준 (Scoring Rubric)

- 5점: 두 페르소나가 완벽하게 구현되었으며, 주제에 대해 깊이 있고 자연스러운 턴테이킹이 이루어진 경우.
- 4점: 대화 흐름과 주제 의식은 명확하나, 페르소나의 매력이 다소 약하거나 아주 경미한 맥락 불일치가 1회 정도 있는 경우.
- 3점: 대화는 진행되나, 페르소나가 희미하거나 기계적인 답변이 섞여 몰입감을 해치는 경우.
- 2점: 대화 도중 문맥을 잃고 동문서답하거나, 페르소나가 붕괴되어 상대방과 구분되지 않는 경우.
- 1점: 주제와 전혀 무관한 이야기를 하거나, 논리적 모순/심각한 할루시네이션으로 대화 성립이 불가능한 경우.

### 6. 출력 예시

반드시 아래 형식을 그대로 따르십시오.

{
    "reason": "...",
    "score": {
        "맥락 유지": 0,
        "페르소나 일관성": 0,
        "주제 적합성": 0
    }
}`, req.Topic, req.Persona1, req.Persona2, dialogue.String())
}
