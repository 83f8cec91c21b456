package main

import (
	"fmt"
	"strings"
	"testing"
)

func sampleTurnRequest() TurnRequest {
	return TurnRequest{
		APIKey:       "sk-test",
		Topic:        "휴대폰 요금제 변경",
		Persona:      "통신사 고객",
		OtherPersona: "통신사 직원",
		BotNumber:    1,
	}
}

// TestBuildTurnPromptIdentity tests identity framing and the anti-bleed clause
func TestBuildTurnPromptIdentity(t *testing.T) {
	t.Run("counterpart index is 3 minus bot index", func(t *testing.T) {
		for _, botNumber := range []int{1, 2} {
			req := sampleTurnRequest()
			req.BotNumber = botNumber
			prompt := BuildTurnPrompt(req)

			want := fmt.Sprintf("상대방은 챗봇 %d", 3-botNumber)
			if !strings.Contains(prompt.System, want) {
				t.Errorf("bot %d: system prompt missing %q", botNumber, want)
			}
		}
	})

	t.Run("system prompt names both personas", func(t *testing.T) {
		prompt := BuildTurnPrompt(sampleTurnRequest())
		if !strings.Contains(prompt.System, "통신사 고객") {
			t.Error("system prompt missing own persona")
		}
		if !strings.Contains(prompt.System, "통신사 직원") {
			t.Error("system prompt missing counterpart persona")
		}
	})

	t.Run("anti-bleed clause present", func(t *testing.T) {
		prompt := BuildTurnPrompt(sampleTurnRequest())
		if !strings.Contains(prompt.System, "절대 상대방의 페르소나나 역할로 말하지 마세요") {
			t.Error("system prompt missing anti-bleed clause")
		}
	})

	t.Run("missing counterpart persona falls back to placeholder", func(t *testing.T) {
		req := sampleTurnRequest()
		req.OtherPersona = ""
		prompt := BuildTurnPrompt(req)
		if !strings.Contains(prompt.System, "알 수 없음") {
			t.Error("system prompt should carry a placeholder for the unknown counterpart persona")
		}
	})
}

// TestBuildTurnPromptCustomTemplate tests {persona} substitution and the
// unconditional identity guard
func TestBuildTurnPromptCustomTemplate(t *testing.T) {
	req := sampleTurnRequest()
	req.CustomSystemPrompt = "당신은 {persona}입니다. 친절하게 대화하세요."

	prompt := BuildTurnPrompt(req)

	if strings.Contains(prompt.System, "{persona}") {
		t.Error("placeholder left unsubstituted")
	}
	if !strings.Contains(prompt.System, "당신은 통신사 고객입니다.") {
		t.Error("persona not substituted into custom template")
	}
	// The guard is appended even when a template is supplied
	if !strings.Contains(prompt.System, "절대 상대방의 페르소나나 역할로 말하지 마세요") {
		t.Error("identity guard missing under custom template")
	}
}

// TestBuildTurnPromptFirstTurn tests the opening branch
func TestBuildTurnPromptFirstTurn(t *testing.T) {
	prompt := BuildTurnPrompt(sampleTurnRequest())

	if !strings.Contains(prompt.User, "대화를 시작합니다") {
		t.Error("first-turn user prompt should instruct opening the topic")
	}
	if strings.Contains(prompt.User, "방금 한 말입니다") {
		t.Error("first-turn user prompt must not carry reactive language")
	}
	if len(prompt.History) != 0 {
		t.Errorf("History length = %d, want 0", len(prompt.History))
	}
}

// TestBuildTurnPromptReactive tests the reactive branch over history
func TestBuildTurnPromptReactive(t *testing.T) {
	req := sampleTurnRequest()
	req.History = []HistoryMessage{
		{Bot: 2, Text: "무엇을 도와드릴까요?"},
	}

	prompt := BuildTurnPrompt(req)

	if !strings.Contains(prompt.User, "무엇을 도와드릴까요?") {
		t.Error("user prompt missing the counterpart's last utterance verbatim")
	}
	if !strings.Contains(prompt.User, "방금 한 말입니다") {
		t.Error("user prompt missing reactive instruction")
	}
	if !strings.Contains(prompt.User, "직접적으로 반응하세요") {
		t.Error("user prompt missing reactivity constraint")
	}
}

// TestBuildTurnPromptHistoryWindow tests that only the most recent entries
// survive, in original order
func TestBuildTurnPromptHistoryWindow(t *testing.T) {
	req := sampleTurnRequest()
	for i := 1; i <= 7; i++ {
		bot := (i % 2) + 1
		req.History = append(req.History, HistoryMessage{Bot: bot, Text: fmt.Sprintf("발언 번호 %d입니다.", i)})
	}

	prompt := BuildTurnPrompt(req)

	// Oldest entries dropped
	for i := 1; i <= 7-MaxHistoryMessages; i++ {
		dropped := fmt.Sprintf("발언 번호 %d입니다.", i)
		if strings.Contains(prompt.User, dropped) {
			t.Errorf("user prompt contains dropped entry %q", dropped)
		}
	}

	// Most recent entries kept, in original order, within the context block
	// (the last utterance is also quoted above it)
	contextStart := strings.Index(prompt.User, "이전 대화 맥락")
	if contextStart < 0 {
		t.Fatal("user prompt missing context block")
	}
	contextPart := prompt.User[contextStart:]
	lastIdx := -1
	for i := 7 - MaxHistoryMessages + 1; i <= 7; i++ {
		kept := fmt.Sprintf("발언 번호 %d입니다.", i)
		idx := strings.Index(contextPart, kept)
		if idx < 0 {
			t.Errorf("context block missing kept entry %q", kept)
			continue
		}
		if idx < lastIdx {
			t.Errorf("entry %q out of order", kept)
		}
		lastIdx = idx
	}

	if len(prompt.History) != MaxHistoryMessages {
		t.Errorf("History length = %d, want %d", len(prompt.History), MaxHistoryMessages)
	}
}

// TestHistoryRoleMapping tests that own lines become assistant turns and the
// counterpart's become user turns
func TestHistoryRoleMapping(t *testing.T) {
	req := sampleTurnRequest()
	req.History = []HistoryMessage{
		{Bot: 1, Text: "요금제를 바꾸고 싶어요."},
		{Bot: 2, Text: "어떤 요금제를 쓰고 계신가요?"},
	}

	prompt := BuildTurnPrompt(req)

	if len(prompt.History) != 2 {
		t.Fatalf("History length = %d, want 2", len(prompt.History))
	}
	if prompt.History[0].Role != "assistant" {
		t.Errorf("own line role = %q, want assistant", prompt.History[0].Role)
	}
	if prompt.History[1].Role != "user" {
		t.Errorf("counterpart line role = %q, want user", prompt.History[1].Role)
	}
	if !strings.Contains(prompt.History[0].Content, "당신(챗봇 1") {
		t.Errorf("own line missing self tag: %q", prompt.History[0].Content)
	}
	if !strings.Contains(prompt.History[1].Content, "상대방(챗봇 2") {
		t.Errorf("counterpart line missing counterpart tag: %q", prompt.History[1].Content)
	}
}

// TestWindowHistory tests the windowing helper directly
func TestWindowHistory(t *testing.T) {
	history := []HistoryMessage{
		{Bot: 1, Text: "a"}, {Bot: 2, Text: "b"}, {Bot: 1, Text: "c"},
	}

	t.Run("short history untouched", func(t *testing.T) {
		got := windowHistory(history, 4)
		if len(got) != 3 {
			t.Errorf("length = %d, want 3", len(got))
		}
	})

	t.Run("long history keeps newest", func(t *testing.T) {
		got := windowHistory(history, 2)
		if len(got) != 2 {
			t.Fatalf("length = %d, want 2", len(got))
		}
		if got[0].Text != "b" || got[1].Text != "c" {
			t.Errorf("window = %v, want newest two in order", got)
		}
	})

	t.Run("non-positive limit disables windowing", func(t *testing.T) {
		got := windowHistory(history, 0)
		if len(got) != 3 {
			t.Errorf("length = %d, want 3", len(got))
		}
	})
}
