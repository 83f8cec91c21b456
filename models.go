package main

// HistoryMessage is one prior utterance in the running dialogue.
// Bot is 1 or 2; insertion order is chronological.
type HistoryMessage struct {
	Bot  int    `json:"bot"`
	Text string `json:"text"`
}

// Sampling holds the generation parameters forwarded to a provider.
// Out-of-range values are replaced by defaults, never rejected.
type Sampling struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// TurnRequest is the unit of work for one utterance by one of the two bots.
type TurnRequest struct {
	APIKey             string
	Provider           string // explicit provider name; empty means sniff the key prefix
	Topic              string
	Persona            string
	OtherPersona       string
	History            []HistoryMessage
	BotNumber          int // 1 or 2; the counterpart is always 3-BotNumber
	Sampling           Sampling
	CustomSystemPrompt string // pre-generated template with a {persona} placeholder
}

// TokenUsage carries normalized token counters for one provider call
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TurnResult is the uniform outcome of one turn. Exactly one of Text (on
// success) or Error (on failure) is populated.
type TurnResult struct {
	Success bool
	Text    string
	Error   string
	Usage   *TokenUsage
}

// ChatMessage is a role-tagged message in provider wire format
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-agnostic shape of one chat call.
// History is OpenAI-shaped role-tagged context; the Anthropic provider
// carries the transcript inside User instead and ignores History.
type CompletionRequest struct {
	Model      string
	System     string
	History    []ChatMessage
	User       string
	Sampling   Sampling
	JSONObject bool // constrain output to a JSON object where the provider supports it
}

// RawCompletion is a provider's successful reply before normalization
type RawCompletion struct {
	Text  string
	Usage TokenUsage
}

// openAIRequest is the OpenAI chat completions request body
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []ChatMessage         `json:"messages"`
	Temperature    float64               `json:"temperature"`
	TopP           float64               `json:"top_p"`
	MaxTokens      int                   `json:"max_tokens"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

// openAIResponse is the subset of the OpenAI response shape we read
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// anthropicRequest is the Anthropic messages request body. The system
// instruction rides in a top-level field, not in the message array.
type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

// anthropicResponse is the subset of the Anthropic response shape we read
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// providerErrorBody is the error envelope both providers use
type providerErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// DialogueEntry is one line of a finished transcript submitted for evaluation
type DialogueEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// EvaluateRequest is a full finished dialogue plus the context it was run under
type EvaluateRequest struct {
	Topic       string          `json:"topic"`
	Persona1    string          `json:"persona1"`
	Persona2    string          `json:"persona2"`
	DialogueLog []DialogueEntry `json:"dialogue_log"`
}

// EvaluationScore holds the three rubric criteria, each an integer 1-5.
// The JSON keys match what the rubric instructs the judge model to emit.
type EvaluationScore struct {
	Context            int `json:"맥락 유지"`
	PersonaConsistency int `json:"페르소나 일관성"`
	TopicAdherence     int `json:"주제 적합성"`
}

// EvaluationResult is the judge model's parsed verdict
type EvaluationResult struct {
	Reason string          `json:"reason"`
	Score  EvaluationScore `json:"score"`
}

// EvaluateOutcome distinguishes a malformed judge reply (RawContent attached)
// from a transport failure (Error only).
type EvaluateOutcome struct {
	Success    bool
	Result     *EvaluationResult
	Error      string
	RawContent string
}

// KeyValidationResult is the outcome of probing a provider with a caller's key
type KeyValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EstimateRequest projects token consumption for a whole simulation before
// any turn runs. Bots may target different providers.
type EstimateRequest struct {
	ModelType1   string  `json:"model_type1"`
	ModelType2   string  `json:"model_type2"`
	Topic        string  `json:"topic"`
	Persona1     string  `json:"persona1"`
	Persona2     string  `json:"persona2"`
	TurnsPerBot  int     `json:"turns_per_bot"`
	NumberOfSets int     `json:"number_of_sets"`
	MaxTokens1   int     `json:"max_tokens1"`
	MaxTokens2   int     `json:"max_tokens2"`
	Temperature1 float64 `json:"temperature1"`
	Temperature2 float64 `json:"temperature2"`
	TopP1        float64 `json:"top_p1"`
	TopP2        float64 `json:"top_p2"`
}

// MessageEstimate is the projection for a single message of the first set
type MessageEstimate struct {
	Set              int    `json:"set"`
	Message          int    `json:"message"`
	Bot              int    `json:"bot"`
	ModelType        string `json:"model_type"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// SimulationEstimate aggregates projected token usage across all sets
type SimulationEstimate struct {
	TotalTokens           int               `json:"total_tokens"`
	TotalPromptTokens     int               `json:"total_prompt_tokens"`
	TotalCompletionTokens int               `json:"total_completion_tokens"`
	PerSetTokens          int               `json:"per_set_tokens"`
	PerMessageTokens      int               `json:"per_message_tokens"`
	Breakdown             []MessageEstimate `json:"breakdown"`
}

// GenerateResponseRequest is the wire shape of POST /api/generate-response
type GenerateResponseRequest struct {
	APIKey             string           `json:"api_key"`
	ModelType          string           `json:"model_type"`
	Topic              string           `json:"topic"`
	Persona            string           `json:"persona"`
	OtherPersona       string           `json:"other_persona"`
	PreviousMessages   []HistoryMessage `json:"previous_messages"`
	BotNumber          int              `json:"bot_number"`
	Temperature        *float64         `json:"temperature"`
	TopP               *float64         `json:"top_p"`
	MaxTokens          int              `json:"max_tokens"`
	CustomSystemPrompt string           `json:"custom_system_prompt"`
}

// ValidateKeyRequest is the wire shape of POST /api/validate-key
type ValidateKeyRequest struct {
	APIKey    string `json:"api_key"`
	ModelType string `json:"model_type"`
}

// GeneratePromptRequest is the wire shape of POST /api/generate-prompt
type GeneratePromptRequest struct {
	APIKey   string `json:"api_key"`
	Topic    string `json:"topic"`
	Persona1 string `json:"persona1"`
	Persona2 string `json:"persona2"`
}
