package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Global key-validation cache instance
var keyValidationCache *ValidationCache

func main() {
	// Load configuration
	LoadConfig()

	// Initialize key-validation cache
	keyValidationCache = NewValidationCache(KeyValidationTTL)

	router := setupRouter()

	// Start server
	log.Printf("Starting duologue backend on port %s...", Port)
	if err := router.Run(":" + Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin router with middleware and all routes
func setupRouter() *gin.Engine {
	router := gin.Default()

	// Request size limit middleware
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)
		c.Next()
	})

	// Request ID middleware for log correlation
	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	})

	// CORS middleware with dynamic origin validation
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// In production, use environment-configured origins
			if len(CORSAllowedOrigins) > 0 && CORSAllowedOrigins[0] != "" {
				for _, allowedOrigin := range CORSAllowedOrigins {
					if origin == allowedOrigin {
						return true
					}
				}
				return false
			}
			// In development, allow any localhost/127.0.0.1 origin
			return len(origin) > 0 && (len(origin) >= 16 && origin[:16] == "http://localhost" ||
				len(origin) >= 14 && origin[:14] == "http://127.0.0")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Routes
	router.GET("/health", healthCheck)
	router.POST("/api/validate-key", validateKeyHandler)
	router.POST("/api/generate-prompt", generatePromptHandler)
	router.POST("/api/generate-response", generateResponseHandler)
	router.POST("/api/estimate-tokens", estimateTokensHandler)
	router.POST("/api/evaluate-conversation", evaluateConversationHandler)

	return router
}

// healthCheck returns a simple health check response.
// GET /health - Returns service status.
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// validateKeyHandler validates a caller-supplied API key against its provider.
// POST /api/validate-key - Caller-level failures come back as HTTP 200 with
// valid=false so the front-end can branch on body content.
func validateKeyHandler(c *gin.Context) {
	var request ValidateKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "요청 데이터가 없습니다.",
		})
		return
	}

	if request.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "API 키가 제공되지 않았습니다.",
		})
		return
	}

	result := ValidateAPIKey(c.Request.Context(), request.APIKey, request.ModelType, keyValidationCache)

	if result.Valid {
		c.JSON(http.StatusOK, gin.H{
			"valid":   true,
			"message": result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": false,
		"error": result.Error,
	})
}

// generatePromptHandler synthesizes a conversation system-prompt template.
// POST /api/generate-prompt - One-shot, runs once per conversation setup.
func generatePromptHandler(c *gin.Context) {
	var request GeneratePromptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "요청 데이터가 없습니다.",
		})
		return
	}

	if request.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "API 키가 제공되지 않았습니다.",
		})
		return
	}
	if request.Topic == "" || request.Persona1 == "" || request.Persona2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "주제와 페르소나가 필요합니다.",
		})
		return
	}

	prompt, err := GenerateConversationPrompt(c.Request.Context(), request.APIKey, request.Topic, request.Persona1, request.Persona2)
	if err != nil {
		log.Printf("prompt generation failed: request_id=%s err=%v", c.GetString("request_id"), err)
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   "프롬프트 생성에 실패했습니다.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"prompt":  prompt,
	})
}

// generateResponseHandler produces one dialogue turn.
// POST /api/generate-response - The caller owns history; the backend is
// stateless between turns.
func generateResponseHandler(c *gin.Context) {
	var request GenerateResponseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "요청 데이터가 없습니다.",
		})
		return
	}

	if request.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "API 키가 제공되지 않았습니다.",
		})
		return
	}
	if request.Topic == "" || request.Persona == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "주제와 페르소나가 필요합니다.",
		})
		return
	}

	botNumber := request.BotNumber
	if botNumber != 1 && botNumber != 2 {
		botNumber = 1
	}

	// Omitted sampling fields take defaults; out-of-range values are clamped
	// downstream, never rejected
	sampling := Sampling{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		MaxOutputTokens: request.MaxTokens,
	}
	if request.Temperature != nil {
		sampling.Temperature = *request.Temperature
	}
	if request.TopP != nil {
		sampling.TopP = *request.TopP
	}

	result := GenerateTurn(c.Request.Context(), TurnRequest{
		APIKey:             request.APIKey,
		Provider:           request.ModelType,
		Topic:              request.Topic,
		Persona:            request.Persona,
		OtherPersona:       request.OtherPersona,
		History:            request.PreviousMessages,
		BotNumber:          botNumber,
		Sampling:           sampling,
		CustomSystemPrompt: request.CustomSystemPrompt,
	})

	if result.Success {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"text":    result.Text,
			"tokens":  result.Usage,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"error":   result.Error,
	})
}

// estimateTokensHandler projects token consumption for a planned simulation.
// POST /api/estimate-tokens - Pure computation, no provider call.
func estimateTokensHandler(c *gin.Context) {
	var request EstimateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "요청 데이터가 없습니다.",
		})
		return
	}

	if request.Topic == "" || request.Persona1 == "" || request.Persona2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "주제와 페르소나가 필요합니다.",
		})
		return
	}

	if request.ModelType1 == "" {
		request.ModelType1 = "openai"
	}
	if request.ModelType2 == "" {
		request.ModelType2 = "openai"
	}
	if request.TurnsPerBot <= 0 {
		request.TurnsPerBot = 3
	}
	if request.NumberOfSets <= 0 {
		request.NumberOfSets = 2
	}

	estimate, err := EstimateSimulationTokens(request)
	if err != nil {
		log.Printf("token estimation failed: request_id=%s err=%v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "서버 오류: 토큰 예측에 실패했습니다.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"estimate": estimate,
	})
}

// evaluateConversationHandler scores a finished transcript via LLM-as-judge.
// POST /api/evaluate-conversation - A malformed judge reply returns the raw
// content alongside the parse error.
func evaluateConversationHandler(c *gin.Context) {
	var request EvaluateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "요청 데이터가 없습니다.",
		})
		return
	}

	outcome := EvaluateConversation(c.Request.Context(), request)

	if outcome.Success {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  outcome.Result,
		})
		return
	}

	response := gin.H{
		"success": false,
		"error":   outcome.Error,
	}
	if outcome.RawContent != "" {
		response["raw_content"] = outcome.RawContent
	}
	c.JSON(http.StatusOK, response)
}
