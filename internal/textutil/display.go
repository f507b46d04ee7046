package textutil

import "rsstranslator/internal/domain/entity"

// Titles and bodies use different separators when both the original and
// the translation are shown.
const (
	TitleSeparator = " || "
	BodySeparator  = "<br />---------------<br />"
	SummaryPrefix  = "<br />🤖:"
	SummarySuffix  = "<br />---------------<br />"
)

// SetTranslationDisplay formats original/translation text per the feed's
// configured DisplayMode, using separator between the two halves when both
// are shown.
func SetTranslationDisplay(original, translation string, mode entity.DisplayMode, separator string) string {
	switch mode {
	case entity.DisplayTranslationOnly:
		return translation
	case entity.DisplayTranslationThenOriginal:
		return translation + separator + original
	case entity.DisplayOriginalThenTranslation:
		return original + separator + translation
	default:
		return ""
	}
}

// FormatSummary wraps a generated summary with the robot-emoji prefix and
// separator that set it apart from the original body when both are shown.
// summaryHTML must already be rendered HTML; callers render the engine's
// Markdown output before composing.
func FormatSummary(summaryHTML, originalHTML string) string {
	return SummaryPrefix + summaryHTML + SummarySuffix + originalHTML
}
