// Package textutil holds the text-processing building blocks the
// translation orchestrator composes: language detection, markdown cleanup,
// tokenization, chunking, and display-mode formatting.
package textutil

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DetectLanguage guesses the source language of an entry from its title
// and body concatenated. Returns "auto" when detection fails or is too
// unreliable to trust; engines treat "auto" as "detect it yourself".
func DetectLanguage(title, content string) string {
	text := fmt.Sprintf("%s %s", title, content)
	if strings.TrimSpace(text) == "" {
		return "auto"
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "auto"
	}
	return whatlanggo.LangToString(info.Lang)
}
