package main

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration constants
var (
	// Port is the HTTP listen port
	Port = "5000"

	// Provider endpoints (overridable via environment for testing)
	OpenAIChatURL    = "https://api.openai.com/v1/chat/completions"
	OpenAIModelsURL  = "https://api.openai.com/v1/models"
	AnthropicChatURL = "https://api.anthropic.com/v1/messages"

	// AnthropicVersion is the required anthropic-version header value
	AnthropicVersion = "2023-06-01"

	// Models per call type
	OpenAITurnModel       = "gpt-4o"
	OpenAIOneShotModel    = "gpt-4o"
	AnthropicTurnModel    = "claude-3-5-haiku-20241022"
	AnthropicOneShotModel = "claude-sonnet-4-5"

	// EvaluationAPIKey is the server-held key for the LLM-as-judge call.
	// Turn generation always uses the caller-supplied key; evaluation does not.
	EvaluationAPIKey = ""

	// Timeout budgets
	TurnTimeout     = 30 * time.Second
	OneShotTimeout  = 60 * time.Second
	ValidateTimeout = 10 * time.Second

	// Sampling defaults, applied when a request omits or exceeds the valid range
	DefaultTemperature     = 1.2
	DefaultTopP            = 0.9
	DefaultMaxOutputTokens = 120

	// MaxHistoryMessages is how many trailing history entries a turn prompt carries
	MaxHistoryMessages = 4

	// RoleLabelPatterns are the anchored "label:" shapes stripped from raw
	// completions. The default catches any short speaker tag echoed from history.
	RoleLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[^:\n]{1,24}:\s*["']?\s*`),
	}

	// MinSentenceRunes is the length below which an unterminated fragment is
	// returned as-is instead of being force-terminated
	MinSentenceRunes = 5

	// CORS allowed origins (configurable via environment)
	// In development (empty/default), allows any localhost port
	// In production, set CORS_ALLOWED_ORIGINS environment variable
	CORSAllowedOrigins = []string{}

	// MaxRequestBodySize is the maximum allowed request body size (1MB)
	MaxRequestBodySize int64 = 1 << 20

	// KeyValidationTTL is how long a key-validation verdict stays cached
	KeyValidationTTL = 5 * time.Minute
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file - try multiple locations
	envLocations := []string{
		".env",    // Current directory
		"../.env", // Parent directory
	}

	envLoaded := false
	for _, envPath := range envLocations {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				log.Printf("Loaded .env from: %s", absPath)
				envLoaded = true
				break
			}
		}
	}

	if !envLoaded {
		log.Printf("Warning: .env file not found in any expected location")
	}

	if port := os.Getenv("PORT"); port != "" {
		Port = port
	}

	// The judge call bills the operator, not the caller, so its key lives
	// server-side. Turn generation still works without it.
	EvaluationAPIKey = os.Getenv("OPENAI_API_KEY")
	if EvaluationAPIKey == "" {
		log.Printf("Warning: OPENAI_API_KEY not set; /api/evaluate-conversation will be unavailable")
	}

	if url := os.Getenv("OPENAI_CHAT_URL"); url != "" {
		OpenAIChatURL = url
	}
	if url := os.Getenv("OPENAI_MODELS_URL"); url != "" {
		OpenAIModelsURL = url
	}
	if url := os.Getenv("ANTHROPIC_CHAT_URL"); url != "" {
		AnthropicChatURL = url
	}

	if window := os.Getenv("MAX_HISTORY_MESSAGES"); window != "" {
		if n, err := strconv.Atoi(window); err == nil && n > 0 {
			MaxHistoryMessages = n
		} else {
			log.Printf("Warning: ignoring invalid MAX_HISTORY_MESSAGES=%q", window)
		}
	}

	// Load CORS origins from environment if provided (comma-separated)
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		CORSAllowedOrigins = []string{}
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				CORSAllowedOrigins = append(CORSAllowedOrigins, origin)
			}
		}
	}

	log.Println("Configuration loaded successfully")
}
