package orchestrator

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/textutil"
)

// translateChunkMode implements the quality content-translation strategy:
// split the whole body into token-budgeted Markdown groups, translate each
// group as one unit, strip the heading the model tends to inject, and
// render the joined Markdown back to HTML for display composition.
func (s *Service) translateChunkMode(
	ctx context.Context,
	content, title, targetLanguage, sourceLanguage string,
	eng engine.Engine,
) (string, []*entity.TranslatedContent, int64, int64) {
	split := textutil.ContentSplit(content)
	groups := textutil.GroupChunks(split, eng.MaxSize(), textutil.GroupByTokens)
	if len(groups) == 0 {
		return content, nil, 0, 0
	}
	metrics.ChunksGroupedTotal.WithLabelValues("chunk").Add(float64(len(groups)))

	translated, rows, tokens, characters := s.translateUnitsBounded(ctx, groups, title, targetLanguage, sourceLanguage, eng)

	stripped := make([]string, len(translated))
	for i, g := range translated {
		stripped[i] = strings.TrimPrefix(g, "## ")
	}
	markdown := strings.Join(stripped, "\n\n")

	return markdownToHTML(markdown), rows, tokens, characters
}

// markdownToHTML renders engine-produced Markdown to HTML for display
// composition, falling back to the raw text when conversion fails.
func markdownToHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return markdown
	}
	return buf.String()
}
