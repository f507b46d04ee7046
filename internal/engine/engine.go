// Package engine abstracts the pluggable translation/summarization
// backends. A chat-completion-style LLM is the typical binding, but the
// interface only demands translate/summarize/max-size so rule-based,
// character-metered engines fit the same contract.
package engine

import "context"

// TextKind selects which prompt template an engine uses for a translate call.
type TextKind int

const (
	// KindTitle sends a single user message: the text to translate.
	KindTitle TextKind = iota
	// KindContent sends two user messages: the article title as context,
	// then the paragraph text.
	KindContent
)

// Result is the outcome of one translate/summarize call. Empty Text with
// zero metering signals a failure the caller should retry or fall back on;
// engines MUST NOT return an error for a normal empty completion, only for
// calls that could not be attempted at all (e.g. context canceled).
type Result struct {
	Text       string
	Tokens     int64
	Characters int64
}

// Engine is the shared contract every translation/summarization backend
// implements. Implementations MUST NOT let failures escape as panics or
// errors from Translate/Summarize for ordinary empty completions -- callers
// distinguish "engine said nothing" (empty Result, nil error) from
// "engine could not be reached at all" (error) only to decide whether a
// retry is worthwhile; both cases ultimately degrade to the original text.
type Engine interface {
	// Translate renders text into targetLanguage. sourceLanguage is
	// typically "auto". titleContext is the entry's title, sent as
	// additional context when kind == KindContent; it is ignored for
	// KindTitle calls.
	Translate(ctx context.Context, text, targetLanguage, sourceLanguage string, kind TextKind, titleContext string) (Result, error)

	// Summarize produces a summary of text in targetLanguage.
	Summarize(ctx context.Context, text, targetLanguage string) (Result, error)

	// MaxSize returns the maximum input unit count per call: tokens for
	// AI engines, characters for rule-based ones. Callers use this to
	// size chunk groups.
	MaxSize() int

	// MetersTokens reports whether this engine's Result.Tokens field is
	// the meaningful usage counter (AI engines) as opposed to
	// Result.Characters (rule-based engines).
	MetersTokens() bool
}
