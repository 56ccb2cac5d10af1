// Package prompts provides prompt management with embedded defaults and
// on-disk overrides.
//
// Resolution order for a key:
//  1. Override file <key>.tmpl in the overrides directory (if present)
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries a hash so LLM calls can be traced to the
// exact prompt text that produced them.
package prompts

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if loaded from the overrides directory
	Hash       string   `json:"hash"`
	Source     string   `json:"source,omitempty"` // override file path
}

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: extract_rules.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}
