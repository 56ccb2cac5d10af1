package extract_rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackzampolin/dcpr/internal/prompts"
	"github.com/jackzampolin/dcpr/internal/providers"
)

const (
	SystemKey = "extract_rules.system"
	UserKey   = "extract_rules.user"
)

//go:embed system.tmpl
var systemPromptTmpl string

//go:embed user.tmpl
var userPromptTmpl string

// Register adds the embedded prompts to r.
func Register(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemKey,
		Text:        systemPromptTmpl,
		Description: "System instruction for chunked rule extraction",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserKey,
		Text:        userPromptTmpl,
		Description: "Per-chunk user message for rule extraction",
	})
}

// SystemData fills the system prompt template.
type SystemData struct {
	Categories string
	ChapterMin int
	ChapterMax int
}

// NewSystemData formats the category enumeration for the prompt.
func NewSystemData(categories []string, chapterMin, chapterMax int) SystemData {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return SystemData{
		Categories: strings.Join(quoted, ", "),
		ChapterMin: chapterMin,
		ChapterMax: chapterMax,
	}
}

// ChunkData fills the user prompt template.
type ChunkData struct {
	Number int // 1-based
	Total  int
	Offset int
	Text   string
}

// Prompts is a rendered system prompt plus the user template, resolved
// once per run.
type Prompts struct {
	System     string
	SystemHash string
	user       string
}

// Build resolves and renders the prompts through r. A nil resolver uses the
// embedded defaults.
func Build(r *prompts.Resolver, data SystemData) (*Prompts, error) {
	systemText, userText := systemPromptTmpl, userPromptTmpl
	if r != nil {
		sys, err := r.Resolve(SystemKey)
		if err != nil {
			return nil, err
		}
		usr, err := r.Resolve(UserKey)
		if err != nil {
			return nil, err
		}
		systemText, userText = sys.Text, usr.Text
	}

	system, err := prompts.Render(SystemKey, systemText, data)
	if err != nil {
		return nil, err
	}
	// Validate the user template once up front.
	if _, err := prompts.Render(UserKey, userText, ChunkData{}); err != nil {
		return nil, err
	}
	return &Prompts{
		System:     system,
		SystemHash: prompts.HashText(system),
		user:       userText,
	}, nil
}

// UserPrompt renders the user message for one chunk.
func (p *Prompts) UserPrompt(chunk ChunkData) (string, error) {
	return prompts.Render(UserKey, p.user, chunk)
}

// Request builds the chat request for one chunk.
func (p *Prompts) Request(chunk ChunkData, model string) (*providers.ChatRequest, error) {
	user, err := p.UserPrompt(chunk)
	if err != nil {
		return nil, err
	}
	return &providers.ChatRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: user},
		},
		ResponseFormat: ResponseFormat(),
		Temperature:    0.1,
		MaxTokens:      8192,
	}, nil
}

// ParseResult decodes validated structured output into a Result.
func ParseResult(parsed json.RawMessage) (*Result, error) {
	if len(parsed) == 0 {
		return nil, fmt.Errorf("empty structured output")
	}
	var result Result
	if err := json.Unmarshal(parsed, &result); err != nil {
		return nil, fmt.Errorf("decode rule extraction result: %w", err)
	}
	return &result, nil
}

// ResponseFormat returns the structured-output constraint for requests.
func ResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
