package main

import (
	"fmt"
	"strings"
)

// TurnPrompt is the deterministic output of prompt assembly for one turn.
// History carries the windowed transcript as OpenAI-shaped role-tagged
// messages; the same window is also flattened into User so providers that
// take a single user message see identical context.
type TurnPrompt struct {
	System  string
	User    string
	History []ChatMessage
}

// formatContract is appended to every turn prompt. These are exactly the
// properties the normalizer later restores when the model violates them.
const formatContract = `

절대적으로 지켜야 할 규칙:
1. 반드시 한국어로만 응답하세요.
2. 반드시 완전한 문장으로 끝나야 합니다. 마침표(.), 느낌표(!), 물음표(?) 중 하나로 끝나야 합니다.
3. 한 번에 1-2문장으로만 응답하세요.
4. 절대 역할 표시("고객:", "직원:" 등)를 포함하지 마세요.
5. 따옴표나 인용 부호로 응답을 감싸지 마세요.`

// BuildTurnPrompt renders the system and user prompts for one turn.
// Pure string assembly; it cannot fail for well-formed input.
func BuildTurnPrompt(req TurnRequest) TurnPrompt {
	otherBot := 3 - req.BotNumber

	system := baseSystemPrompt(req, otherBot)
	system += identityGuard(req, otherBot)
	system += formatContract

	window := windowHistory(req.History, MaxHistoryMessages)

	var user string
	if len(window) == 0 {
		user = openingUserPrompt(req)
	} else {
		user = reactiveUserPrompt(req, otherBot, window)
	}

	return TurnPrompt{
		System:  system,
		User:    user,
		History: historyMessages(req, otherBot, window),
	}
}

// baseSystemPrompt is either the caller's pre-generated template with its
// {persona} placeholder substituted, or the built-in identity framing.
func baseSystemPrompt(req TurnRequest, otherBot int) string {
	if req.CustomSystemPrompt != "" {
		return strings.ReplaceAll(req.CustomSystemPrompt, "{persona}", req.Persona)
	}

	return fmt.Sprintf(`당신은 챗봇 %d입니다. %s의 역할을 맡고 있습니다.

현재 상황:
- 주제: %s
- 당신은 챗봇 %d (%s)
- 상대방은 챗봇 %d
- 두 챗봇이 %s에 대해 대화를 나누고 있습니다.

당신의 역할 (매우 중요):
- 이것은 단순한 독백이 아닌 실제 대화입니다.
- 상대방(챗봇 %d)의 발언에 반드시 직접적으로 반응해야 합니다.
- 상대방의 말에 대해 질문하거나, 공감하거나, 동의하거나, 반대 의견을 제시하세요.
- 절대로 주제에 대해 독립적으로 말만 하면 안 됩니다. 상대방과의 상호작용이 필수입니다.
- "%s"의 관점을 유지하면서도 상대방과 소통해야 합니다.`,
		req.BotNumber, req.Persona,
		req.Topic,
		req.BotNumber, req.Persona,
		otherBot,
		req.Topic,
		otherBot,
		req.Persona)
}

// identityGuard is the anti-bleed clause. It is appended unconditionally,
// even under a custom template: the same natural-language channel carries
// both agents' utterances, and a model drifts into whichever voice it saw
// most recently unless "you" and "the counterpart" are pinned explicitly.
func identityGuard(req TurnRequest, otherBot int) string {
	otherPersona := req.OtherPersona
	if otherPersona == "" {
		otherPersona = "알 수 없음"
	}

	return fmt.Sprintf(`

[매우 중요] 당신의 정체성과 역할:
- 당신은 챗봇 %d이며, 페르소나는 "%s"입니다
- 상대방은 챗봇 %d이며, 페르소나는 "%s"입니다
- 당신은 절대 상대방의 페르소나나 역할로 말하지 마세요
- 당신은 오직 "%s"의 페르소나로만 대화해야 합니다
- 대화 히스토리에서 "당신(챗봇 %d, %s)"이라고 표시된 것은 당신이 말한 내용입니다
- "상대방(챗봇 %d, %s)"이라고 표시된 것은 상대방이 말한 내용입니다
- 절대 자신과 상대방의 발언을 혼동하지 마세요
- 절대 상대방의 페르소나, 역할, 말투를 모방하거나 따라하지 마세요`,
		req.BotNumber, req.Persona,
		otherBot, otherPersona,
		req.Persona,
		req.BotNumber, req.Persona,
		otherBot, otherPersona)
}

// openingUserPrompt instructs the bot to open the topic. No reactive language
// here: there is nothing to react to yet.
func openingUserPrompt(req TurnRequest) string {
	return fmt.Sprintf(`주제 '%s'에 대해 대화를 시작합니다.

당신은 챗봇 %d이며, 페르소나는 "%s"입니다. 이 페르소나의 역할과 특성으로 대화의 첫 발언을 하세요.
짧고 간결하게, 1-2문장으로 주제에 대한 첫 메시지를 작성하세요.`,
		req.Topic, req.BotNumber, req.Persona)
}

// reactiveUserPrompt embeds the counterpart's last utterance verbatim and the
// windowed context, each line tagged with who said it.
func reactiveUserPrompt(req TurnRequest, otherBot int, window []HistoryMessage) string {
	otherPersona := req.OtherPersona
	if otherPersona == "" {
		otherPersona = "알 수 없음"
	}

	last := window[len(window)-1]

	var context strings.Builder
	for _, msg := range window {
		context.WriteString(speakerTag(req, otherBot, msg))
		context.WriteString(": ")
		context.WriteString(msg.Text)
		context.WriteString("\n")
	}

	return fmt.Sprintf(`[매우 중요] 당신의 정체성 (절대 잊지 마세요):
- 당신은 챗봇 %d이며, 페르소나는 "%s"입니다
- 상대방은 챗봇 %d이며, 페르소나는 "%s"입니다
- 절대 상대방의 페르소나나 말투를 모방하지 마세요

상대방(챗봇 %d, %s)이 방금 한 말입니다:

"%s"

[중요] 이전 대화 맥락 (참고용):
%s
위 대화에서 이미 언급된 내용을 다시 물어보지 마세요.

상대방의 말에 직접적으로 반응하세요. 질문하거나, 공감하거나, 동의하거나, 반대 의견을 제시하면서 대화를 한 단계 더 진전된 방향으로 이끌어가세요.
짧고 간결하게, 1-2문장으로만 응답하세요.`,
		req.BotNumber, req.Persona,
		otherBot, otherPersona,
		otherBot, otherPersona,
		last.Text,
		context.String())
}

// speakerTag disambiguates "you" from "the counterpart" wherever history is
// echoed back, by persona name when one is known.
func speakerTag(req TurnRequest, otherBot int, msg HistoryMessage) string {
	if msg.Bot == req.BotNumber {
		return fmt.Sprintf("당신(챗봇 %d, %s)", req.BotNumber, req.Persona)
	}
	otherPersona := req.OtherPersona
	if otherPersona == "" {
		otherPersona = "알 수 없음"
	}
	return fmt.Sprintf("상대방(챗봇 %d, %s)", otherBot, otherPersona)
}

// windowHistory keeps the most recent limit entries, dropping the oldest
// first and never reordering.
func windowHistory(history []HistoryMessage, limit int) []HistoryMessage {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// historyMessages maps the window onto role-tagged wire messages: the bot's
// own lines become assistant turns, the counterpart's become user turns.
func historyMessages(req TurnRequest, otherBot int, window []HistoryMessage) []ChatMessage {
	messages := make([]ChatMessage, 0, len(window))
	for _, msg := range window {
		if msg.Bot == req.BotNumber {
			messages = append(messages, ChatMessage{
				Role:    "assistant",
				Content: fmt.Sprintf("[%s의 이전 발언] %s", speakerTag(req, otherBot, msg), msg.Text),
			})
		} else {
			messages = append(messages, ChatMessage{
				Role:    "user",
				Content: fmt.Sprintf("[%s의 발언] %s", speakerTag(req, otherBot, msg), msg.Text),
			})
		}
	}
	return messages
}
