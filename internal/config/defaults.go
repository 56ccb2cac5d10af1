package config

import (
	"errors"
	"fmt"
	"sort"
	"unicode"
)

var (
	// ErrInvalidKey is returned when a config key contains invalid characters.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrUnknownKey is returned when a config key has no value or default.
	ErrUnknownKey = errors.New("unknown config key")
)

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Entry is one documented configuration key with its effective value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

var descriptions = map[string]string{
	"defaults.llm_provider":          "LLM provider used by the llm strategy",
	"defaults.strategies":            "Strategies run by extract when --strategy is not given",
	"extraction.chunk_size":          "LLM chunk size in runes",
	"extraction.chunk_delay_seconds": "Fixed pause before each LLM chunk call",
	"extraction.requests_per_minute": "Adaptive rate gate budget; 0 uses the fixed chunk delay",
	"extraction.window_size":         "Keyword strategy window size in runes",
	"extraction.context_window":      "Bytes searched on each side of a span for a clause number",
	"extraction.min_summary_len":     "Summaries shorter than this are classified as noise",
	"extraction.summary_max_len":     "Summary cap in runes",
	"patterns.file":                  "Pattern library override file (YAML)",
	"prompts.overrides_dir":          "Directory of <prompt-key>.tmpl overrides",
	"validation.metadata_warnings":   "Warn about missing pdfPage and verified fields",
	"storage.db_path":                "Corpus database path; empty uses the home directory",
}

// Entries lists the documented keys with their effective values, sorted
// by key. Provider blocks are summarized per provider.
func (c *Config) Entries() []Entry {
	values := map[string]any{
		"defaults.llm_provider":          c.Defaults.LLMProvider,
		"defaults.strategies":            c.Defaults.Strategies,
		"extraction.chunk_size":          c.Extraction.ChunkSize,
		"extraction.chunk_delay_seconds": c.Extraction.ChunkDelaySeconds,
		"extraction.requests_per_minute": c.Extraction.RequestsPerMinute,
		"extraction.window_size":         c.Extraction.WindowSize,
		"extraction.context_window":      c.Extraction.ContextWindow,
		"extraction.min_summary_len":     c.Extraction.MinSummaryLen,
		"extraction.summary_max_len":     c.Extraction.SummaryMaxLen,
		"patterns.file":                  c.Patterns.File,
		"prompts.overrides_dir":          c.Prompts.OverridesDir,
		"validation.metadata_warnings":   c.Validation.MetadataWarnings,
		"storage.db_path":                c.Storage.DBPath,
	}

	entries := make([]Entry, 0, len(values)+len(c.LLMProviders))
	for key, value := range values {
		entries = append(entries, Entry{Key: key, Value: value, Description: descriptions[key]})
	}
	for name, p := range c.LLMProviders {
		entries = append(entries, Entry{
			Key:         "llm_providers." + name,
			Value:       fmt.Sprintf("type=%s model=%s enabled=%t", p.Type, p.Model, p.Enabled),
			Description: "LLM provider " + name,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
