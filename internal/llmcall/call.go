// Package llmcall provides LLM call recording for traceability.
// Every extraction call is recorded with its prompt key, response and usage.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/dcpr/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	RunID       string `json:"run_id,omitempty"`
	ChunkIndex  int    `json:"chunk_index"`
	ChunkOffset int    `json:"chunk_offset"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"`

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	// Token usage
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	ReasoningTokens int     `json:"reasoning_tokens,omitempty"`
	CostUSD         float64 `json:"cost_usd,omitempty"`

	Response string `json:"response"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	RunID       string
	ChunkIndex  int
	ChunkOffset int

	// Prompt identification (required for traceability)
	PromptKey  string
	PromptHash string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:              uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		LatencyMs:       int(result.ExecutionTime.Milliseconds()),
		RunID:           opts.RunID,
		ChunkIndex:      opts.ChunkIndex,
		ChunkOffset:     opts.ChunkOffset,
		PromptKey:       opts.PromptKey,
		PromptHash:      opts.PromptHash,
		Provider:        result.Provider,
		Model:           result.ModelUsed,
		Temperature:     opts.Temperature,
		InputTokens:     result.PromptTokens,
		OutputTokens:    result.CompletionTokens,
		ReasoningTokens: result.ReasoningTokens,
		CostUSD:         result.CostUSD,
		Response:        result.Content,
		Success:         result.Success,
	}

	if !result.Success {
		call.ErrorType = result.ErrorType
		call.Error = result.ErrorMessage
	}
	return call
}
