package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// MaxAttempts is the number of transport attempts per call (default 1:
	// chunk failures are absorbed by the caller, not retried).
	MaxAttempts int
	RetryDelay  time.Duration // Base delay between attempts (default: 1s)
	HTTPClient  *http.Client  // Optional (tests)
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	maxAttempts  int
	retryDelay   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "openai/gpt-4.1-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       httpClient,
		maxAttempts:  cfg.MaxAttempts,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Model returns the default model.
func (c *OpenRouterClient) Model() string {
	return c.defaultModel
}

// MaxAttempts returns the configured transport attempts.
func (c *OpenRouterClient) MaxAttempts() int {
	return c.maxAttempts
}

// Chat sends a chat completion request.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	// Generate request ID if not provided
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
	}

	orReq := openRouterRequest{
		Model:       model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Usage:       usageOption{Include: true},
	}
	for _, m := range req.Messages {
		orReq.Messages = append(orReq.Messages, openRouterMessage{Role: m.Role, Content: m.Content})
	}
	if req.ResponseFormat != nil && nativeSchema(model) {
		orReq.ResponseFormat = req.ResponseFormat
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	orResp, attempts, httpErr := c.doRequest(ctx, "/chat/completions", &orReq)
	result.Attempts = attempts
	if httpErr != nil {
		if rl, ok := AsRateLimit(httpErr); ok {
			result.RetryAfter = rl.RetryAfter
			return result.fail("rate_limit", start, httpErr)
		}
		return result.fail("http_error", start, httpErr)
	}

	if orResp.Error != nil {
		return result.fail("api_error", start, orResp.Error)
	}
	if len(orResp.Choices) == 0 {
		return result.fail("empty_response", start, fmt.Errorf("no choices in response"))
	}

	choice := orResp.Choices[0]
	content := string(choice.Message.Content)

	result.Content = content
	result.ModelUsed = orResp.Model
	result.PromptTokens = orResp.Usage.PromptTokens
	result.CompletionTokens = orResp.Usage.CompletionTokens
	result.TotalTokens = orResp.Usage.TotalTokens
	result.ReasoningTokens = orResp.Usage.CompletionTokensDetails.ReasoningTokens
	result.CostUSD = orResp.Usage.Cost
	result.ExecutionTime = time.Since(start)

	if req.ResponseFormat != nil {
		parsed, err := req.ResponseFormat.Decode(content)
		if err != nil {
			errType := "json_parse"
			if choice.FinishReason == "length" {
				errType = "truncated"
			}
			return result.fail(errType, start, fmt.Errorf("structured output: %w", err))
		}
		result.ParsedJSON = parsed
	}

	result.Success = true
	result.TotalTime = time.Since(start)
	return result, nil
}

// nativeSchema reports whether response_format is sent for model.
// OpenRouter may route anthropic/* models to backends that reject it; those
// get the record layout from the system prompt and are validated locally.
func nativeSchema(model string) bool {
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

// Verify interface
var _ LLMClient = (*OpenRouterClient)(nil)
