package main

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

// Token estimation constants
const (
	// avgHistoryMessageTokens approximates one history entry; real turns are
	// capped at 1-2 sentences so 80 tokens is a safe average
	avgHistoryMessageTokens = 80

	// messageOverheadTokens covers per-message role and formatting framing
	messageOverheadTokens = 4

	// defaultResponseTokens is the projected completion length when the
	// request does not cap output tokens
	defaultResponseTokens = 80

	// breakdownLimit caps the per-message rows returned to the UI
	breakdownLimit = 10
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// getEncoding returns the shared tokenizer. Both supported providers are
// close enough to cl100k_base for a projection; r50k_base is the fallback.
func getEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
		if encodingErr != nil {
			encoding, encodingErr = tiktoken.GetEncoding("r50k_base")
		}
	})
	return encoding, encodingErr
}

// CountTokens returns the token count of text under the shared encoding
func CountTokens(text string) (int, error) {
	enc, err := getEncoding()
	if err != nil {
		return 0, fmt.Errorf("tokenizer unavailable: %w", err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// estimateMessageTokens projects one message's usage. The system and user
// prompts are counted from the real prompt scaffolding; history entries are
// approximated by an average since their content does not exist yet.
func estimateMessageTokens(req EstimateRequest, botNumber, previousCount int) (TokenUsage, error) {
	persona, otherPersona := req.Persona1, req.Persona2
	maxTokens := req.MaxTokens1
	if botNumber == 2 {
		persona, otherPersona = req.Persona2, req.Persona1
		maxTokens = req.MaxTokens2
	}

	turnReq := TurnRequest{
		Topic:        req.Topic,
		Persona:      persona,
		OtherPersona: otherPersona,
		BotNumber:    botNumber,
	}
	if previousCount > 0 {
		// One placeholder entry so the reactive branch renders; the rest of
		// the window is averaged below
		turnReq.History = []HistoryMessage{{Bot: 3 - botNumber, Text: ""}}
	}
	prompt := BuildTurnPrompt(turnReq)

	systemTokens, err := CountTokens(prompt.System)
	if err != nil {
		return TokenUsage{}, err
	}
	userTokens, err := CountTokens(prompt.User)
	if err != nil {
		return TokenUsage{}, err
	}

	windowed := previousCount
	if windowed > MaxHistoryMessages {
		windowed = MaxHistoryMessages
	}
	historyTokens := windowed * (avgHistoryMessageTokens + messageOverheadTokens)

	completionTokens := defaultResponseTokens
	if maxTokens > 0 && maxTokens < completionTokens {
		completionTokens = maxTokens
	}

	promptTokens := systemTokens + userTokens + historyTokens + messageOverheadTokens
	return TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}, nil
}

// EstimateSimulationTokens projects token consumption for a whole simulation
// before any turn runs. Sets are independent, so each set's projection is
// computed in its own goroutine.
func EstimateSimulationTokens(req EstimateRequest) (*SimulationEstimate, error) {
	if req.TurnsPerBot <= 0 || req.NumberOfSets <= 0 {
		return nil, fmt.Errorf("turns_per_bot and number_of_sets must be positive")
	}

	messagesPerSet := req.TurnsPerBot * 2

	type setTotals struct {
		promptTokens     int
		completionTokens int
		breakdown        []MessageEstimate
	}
	results := make([]setTotals, req.NumberOfSets)

	var g errgroup.Group
	for setIdx := 0; setIdx < req.NumberOfSets; setIdx++ {
		setIdx := setIdx
		g.Go(func() error {
			var totals setTotals
			for msgIdx := 0; msgIdx < messagesPerSet; msgIdx++ {
				botNumber := (msgIdx % 2) + 1
				modelType := req.ModelType1
				if botNumber == 2 {
					modelType = req.ModelType2
				}

				usage, err := estimateMessageTokens(req, botNumber, msgIdx)
				if err != nil {
					return err
				}

				totals.promptTokens += usage.PromptTokens
				totals.completionTokens += usage.CompletionTokens

				// Only the first set carries a breakdown; all sets project
				// identically
				if setIdx == 0 && msgIdx < breakdownLimit {
					totals.breakdown = append(totals.breakdown, MessageEstimate{
						Set:              setIdx + 1,
						Message:          msgIdx + 1,
						Bot:              botNumber,
						ModelType:        modelType,
						PromptTokens:     usage.PromptTokens,
						CompletionTokens: usage.CompletionTokens,
						TotalTokens:      usage.TotalTokens,
					})
				}
			}
			results[setIdx] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	estimate := &SimulationEstimate{}
	for _, totals := range results {
		estimate.TotalPromptTokens += totals.promptTokens
		estimate.TotalCompletionTokens += totals.completionTokens
		if totals.breakdown != nil {
			estimate.Breakdown = totals.breakdown
		}
	}
	estimate.TotalTokens = estimate.TotalPromptTokens + estimate.TotalCompletionTokens
	estimate.PerSetTokens = estimate.TotalTokens / req.NumberOfSets
	if totalMessages := messagesPerSet * req.NumberOfSets; totalMessages > 0 {
		estimate.PerMessageTokens = estimate.TotalTokens / totalMessages
	}

	return estimate, nil
}
