package config

import "time"

// Config holds dcpr configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
	Patterns     PatternsCfg               `mapstructure:"patterns" yaml:"patterns"`
	Prompts      PromptsCfg                `mapstructure:"prompts" yaml:"prompts"`
	Validation   ValidationCfg             `mapstructure:"validation" yaml:"validation"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`                       // "openrouter", "openai", "mock"
	Model          string `mapstructure:"model" yaml:"model"`                     // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`         // Transport attempts per call
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // HTTP timeout
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string   `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
	Strategies  []string `mapstructure:"strategies" yaml:"strategies"`     // Strategies run by extract
}

// ExtractionCfg tunes the extraction strategies.
type ExtractionCfg struct {
	ChunkSize         int     `mapstructure:"chunk_size" yaml:"chunk_size"`                   // LLM chunk size in runes
	ChunkDelaySeconds float64 `mapstructure:"chunk_delay_seconds" yaml:"chunk_delay_seconds"` // Fixed pause between LLM chunks
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"` // Adaptive gate; 0 uses the fixed delay
	WindowSize        int     `mapstructure:"window_size" yaml:"window_size"`                 // Keyword window size in runes
	ContextWindow     int     `mapstructure:"context_window" yaml:"context_window"`           // Bytes searched for clause ids
	MinSummaryLen     int     `mapstructure:"min_summary_len" yaml:"min_summary_len"`
	SummaryMaxLen     int     `mapstructure:"summary_max_len" yaml:"summary_max_len"`
}

// ChunkDelay returns the fixed inter-chunk delay.
func (e ExtractionCfg) ChunkDelay() time.Duration {
	return time.Duration(e.ChunkDelaySeconds * float64(time.Second))
}

// PatternsCfg points at an optional pattern library override.
type PatternsCfg struct {
	File string `mapstructure:"file" yaml:"file"`
}

// PromptsCfg points at an optional prompt override directory.
type PromptsCfg struct {
	OverridesDir string `mapstructure:"overrides_dir" yaml:"overrides_dir"`
}

// ValidationCfg controls optional validation checks.
type ValidationCfg struct {
	MetadataWarnings bool `mapstructure:"metadata_warnings" yaml:"metadata_warnings"`
}

// StorageCfg locates the corpus database. Empty uses the home directory.
type StorageCfg struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:           "openrouter",
				Model:          "anthropic/claude-sonnet-4",
				APIKey:         "${OPENROUTER_API_KEY}",
				MaxRetries:     1,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4.1-mini",
				APIKey:         "${OPENAI_API_KEY}",
				MaxRetries:     0,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
			"mock": {
				Type:    "mock",
				Enabled: false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openrouter",
			Strategies:  []string{"regex"},
		},
		Extraction: ExtractionCfg{
			ChunkSize:         4000,
			ChunkDelaySeconds: 1,
			WindowSize:        1000,
			ContextWindow:     200,
			MinSummaryLen:     10,
			SummaryMaxLen:     150,
		},
		Validation: ValidationCfg{
			MetadataWarnings: true,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
