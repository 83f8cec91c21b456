package main

import (
	"strings"
	"unicode/utf8"
)

// Sentence-final morphemes for Korean. A completion that ends on one of these
// was cut off after a full clause and only lost its punctuation.
var (
	koreanFinalRunes = []rune("다요죠네어아지게세까래대")

	koreanFinalSuffixes = []string{
		"니다", "습니다", "어요", "아요", "지요", "게요", "세요", "까요", "래요", "대요",
	}

	// Particles that can only appear mid-sentence. A completion ending on one
	// of these lost its tail mid-clause.
	koreanParticleSuffixes = []string{
		"은", "는", "이", "가", "을", "를", "에", "의", "와", "과", "로", "으로", "에서", "에게", "께서",
	}
)

// NormalizeUtterance turns a raw completion into a clean single-speaker
// utterance: quote and role-label artifacts stripped, terminal punctuation
// guaranteed. Total: never errors, returns empty only for empty input.
func NormalizeUtterance(text string) string {
	return EnsureCompleteSentence(CleanResponseText(text))
}

// CleanResponseText strips wrapping quotes and leading speaker labels that a
// model echoes back from the history it was shown.
func CleanResponseText(text string) string {
	if text == "" {
		return text
	}

	text = strings.TrimSpace(text)
	text = stripWrappingQuotes(text)

	// Leading "label:" prefixes, per configured pattern
	for _, pattern := range RoleLabelPatterns {
		text = strings.TrimSpace(pattern.ReplaceAllString(text, ""))
	}

	// Label stripping can expose another quote layer
	text = stripWrappingQuotes(text)

	return text
}

// stripWrappingQuotes removes one layer of straight quotes. A matched pair is
// stripped from both ends; a lone leading or trailing quote from that end only.
func stripWrappingQuotes(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && (first == '"' || first == '\'') {
			return strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	if len(text) >= 1 && (text[0] == '"' || text[0] == '\'') {
		text = strings.TrimSpace(text[1:])
	}
	if len(text) >= 1 && (text[len(text)-1] == '"' || text[len(text)-1] == '\'') {
		text = strings.TrimSpace(text[:len(text)-1])
	}
	return text
}

// EnsureCompleteSentence guarantees the text ends on a complete sentence.
// A recognized sentence-final morpheme gets a period appended; otherwise the
// text is truncated to its right-most terminal punctuation, discarding the
// trailing fragment a token limit left behind. As a last resort a period is
// forced onto anything longer than MinSentenceRunes.
func EnsureCompleteSentence(text string) string {
	if text == "" {
		return text
	}

	text = strings.TrimSpace(text)

	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}

	for _, suffix := range koreanFinalSuffixes {
		if strings.HasSuffix(text, suffix) {
			return text + "."
		}
	}

	if utf8.RuneCountInString(text) > 1 {
		lastRune, _ := utf8.DecodeLastRuneInString(text)
		for _, r := range koreanFinalRunes {
			if lastRune == r {
				return text + "."
			}
		}
	}

	// Terminal punctuation is ASCII, so the byte index is safe to cut on
	if idx := strings.LastIndexAny(text, ".!?"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}

	// No complete sentence anywhere. Prefer a forced terminal over returning
	// a visibly truncated fragment, unless the text is trivially short.
	for _, suffix := range koreanParticleSuffixes {
		if strings.HasSuffix(text, suffix) {
			return text + "."
		}
	}
	if utf8.RuneCountInString(text) > MinSentenceRunes {
		return text + "."
	}

	return text
}

// stripCodeFence unwraps a markdown code fence (``` or ```json) around a
// model reply. Used before parsing structured output from providers without
// a JSON-constrained mode.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop a language tag on the fence line
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
