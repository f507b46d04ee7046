package engine

import (
	"fmt"

	"rsstranslator/internal/pkg/config"
)

// Default chat-completion prompts. {target_language} is the only
// placeholder substituted into prompt templates; operator-supplied
// overrides can rely on it and nothing else.
const (
	DefaultTitleTranslatePrompt = "You are a professional translator. Translate the given title into " +
		"{target_language}. Return only the translated title, no explanation."
	DefaultContentTranslatePrompt = "You are a professional translator. Translate the given paragraph into " +
		"{target_language}, preserving meaning and tone. Return only the translation."
	DefaultSummaryPrompt = "Summarize the given text in {target_language}. Be concise and preserve the key facts."
)

// ValidateCharacterLimit bounds character-limited engine outputs (summary
// length, truncation) to a sane operating range.
func ValidateCharacterLimit(limit int) error {
	const min, max = 100, 5000
	if limit < min || limit > max {
		return fmt.Errorf("character limit %d out of range [%d, %d]", limit, min, max)
	}
	return nil
}

// loadPromptsFromEnv loads the three prompt templates with fail-open
// fallback to the defaults above, matching internal/pkg/config's loader
// contract (never errors, logs a warning only when a validator rejects the
// override -- there is no validator here beyond non-empty).
func loadPromptsFromEnv(titleEnv, contentEnv, summaryEnv string) (title, content, summary string) {
	nonEmpty := func(s string) error {
		if s == "" {
			return fmt.Errorf("prompt must not be empty")
		}
		return nil
	}
	title = config.LoadEnvWithFallback(titleEnv, DefaultTitleTranslatePrompt, nonEmpty).Value.(string)
	content = config.LoadEnvWithFallback(contentEnv, DefaultContentTranslatePrompt, nonEmpty).Value.(string)
	summary = config.LoadEnvWithFallback(summaryEnv, DefaultSummaryPrompt, nonEmpty).Value.(string)
	return title, content, summary
}
