package engine

import (
	"log/slog"

	"rsstranslator/internal/pkg/config"
)

// RefClaude and RefOpenAI name the two built-in engine bindings by the
// same opaque ref strings a SourceFeed's TranslatorRef/SummaryRef are
// expected to carry.
const (
	RefClaude = "claude"
	RefOpenAI = "openai"
)

// LoadEnginesFromEnv builds the map[string]Engine the orchestrator needs,
// binding every engine this process has credentials for. A SourceFeed
// whose TranslatorRef/SummaryRef names an engine absent from this map
// degrades that pipeline stage to a no-op, so a deployment only needs to
// set credentials for the engines it actually references.
//
// Environment variables:
//   - ANTHROPIC_API_KEY: enables the "claude" engine when non-empty.
//   - CLAUDE_MODEL (default "claude-3-5-haiku-20241022"), CLAUDE_MAX_TOKENS
//     (default 4096), CLAUDE_MAX_SIZE (default 100000, tokens).
//   - OPENAI_API_KEY: enables the "openai" engine when non-empty.
//   - OPENAI_BASE_URL (optional, for OpenAI-compatible third-party
//     endpoints), OPENAI_MODEL (default "gpt-3.5-turbo"),
//     OPENAI_MAX_TOKENS (default 2048), OPENAI_MAX_SIZE (default 16000,
//     tokens).
//   - {CLAUDE,OPENAI}_{TITLE,CONTENT,SUMMARY}_PROMPT: per-engine prompt
//     template overrides, each falling back to the package defaults.
func LoadEnginesFromEnv() map[string]Engine {
	engines := make(map[string]Engine)

	positiveInt := func(v int) error { return config.ValidateIntRange(v, 1, 1<<20) }

	if apiKey := config.LoadEnvString("ANTHROPIC_API_KEY", ""); apiKey != "" {
		model := config.LoadEnvString("CLAUDE_MODEL", "claude-3-5-haiku-20241022")
		maxTokens := config.LoadEnvInt("CLAUDE_MAX_TOKENS", 4096, positiveInt).Value.(int)
		maxSize := config.LoadEnvInt("CLAUDE_MAX_SIZE", 100000, positiveInt).Value.(int)
		engines[RefClaude] = NewClaude(apiKey, model, maxTokens, maxSize,
			"CLAUDE_TITLE_PROMPT", "CLAUDE_CONTENT_PROMPT", "CLAUDE_SUMMARY_PROMPT")
	} else {
		slog.Info("claude engine disabled: ANTHROPIC_API_KEY not set")
	}

	if apiKey := config.LoadEnvString("OPENAI_API_KEY", ""); apiKey != "" {
		baseURL := config.LoadEnvString("OPENAI_BASE_URL", "")
		model := config.LoadEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
		maxTokens := config.LoadEnvInt("OPENAI_MAX_TOKENS", 2048, positiveInt).Value.(int)
		maxSize := config.LoadEnvInt("OPENAI_MAX_SIZE", 16000, positiveInt).Value.(int)
		engines[RefOpenAI] = NewOpenAI(apiKey, baseURL, model, maxTokens, maxSize,
			"OPENAI_TITLE_PROMPT", "OPENAI_CONTENT_PROMPT", "OPENAI_SUMMARY_PROMPT")
	} else {
		slog.Info("openai engine disabled: OPENAI_API_KEY not set")
	}

	return engines
}
