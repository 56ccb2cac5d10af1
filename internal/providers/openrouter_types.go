package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire types for /chat/completions. Only fields the client sends or reads
// are modelled.

type openRouterRequest struct {
	Model          string              `json:"model"`
	Messages       []openRouterMessage `json:"messages"`
	Temperature    float64             `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat     `json:"response_format,omitempty"`
	Usage          usageOption         `json:"usage"`
}

// usageOption asks OpenRouter to report cost with token counts.
type usageOption struct {
	Include bool `json:"include"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponse struct {
	Model   string             `json:"model"`
	Choices []openRouterChoice `json:"choices"`
	Usage   openRouterUsage    `json:"usage"`
	Error   *openRouterError   `json:"error,omitempty"`
}

type openRouterChoice struct {
	Message struct {
		Content messageContent `json:"content"`
	} `json:"message"`
	// FinishReason is "length" when the model hit max_tokens mid-answer.
	FinishReason string `json:"finish_reason"`
}

type openRouterUsage struct {
	PromptTokens            int     `json:"prompt_tokens"`
	CompletionTokens        int     `json:"completion_tokens"`
	TotalTokens             int     `json:"total_tokens"`
	Cost                    float64 `json:"cost"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

type openRouterError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

func (e *openRouterError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("OpenRouter API error (%v): %s", e.Code, e.Message)
	}
	return "OpenRouter API error: " + e.Message
}

// messageContent is the assistant text. Backends answer with a string, a
// list of typed parts, or (for some structured-output routes) a bare JSON
// object, which is kept as its JSON text.
type messageContent string

func (m *messageContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*m = ""
		return nil
	case strings.HasPrefix(trimmed, "{"):
		*m = messageContent(trimmed)
		return nil
	case strings.HasPrefix(trimmed, "["):
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("message content parts: %w", err)
		}
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "" || p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		*m = messageContent(b.String())
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("message content: %w", err)
	}
	*m = messageContent(s)
	return nil
}
