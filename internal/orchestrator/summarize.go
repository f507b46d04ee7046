package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
	"rsstranslator/internal/textutil"
)

// recursiveSummaryTemplate feeds prior partial summaries back into the next
// chunk's prompt so later chunks are summarized with earlier context.
const recursiveSummaryTemplate = "Previous summaries:\n\n%s\n\nText to summarize next:\n\n%s"

// summarizeContent summarizes one entry's content: it interpolates a
// chunk count from detail in [0,1] (0 = one shot, 1 = one call per chunk),
// summarizes each chunk sequentially (optionally feeding prior partial
// summaries back in as context), and joins the partial summaries into one
// final summary. The whole operation is cached as a single unit under the
// "Summary_" prefixed key, independent of how many chunks it took
// internally.
func (s *Service) summarizeContent(
	ctx context.Context,
	content, targetLanguage string,
	detail float64,
	eng engine.Engine,
) (summary string, row *entity.TranslatedContent, tokens, characters int64) {
	if content == "" {
		return "", nil, 0, 0
	}
	if detail < 0 || detail > 1 {
		slog.WarnContext(ctx, "orchestrator: summary detail out of [0,1], clamping", slog.Float64("detail", detail))
		if detail < 0 {
			detail = 0
		} else {
			detail = 1
		}
	}

	cacheKey := entity.SummaryCacheKeyPrefix + content
	if cached, err := s.cache.Lookup(ctx, cacheKey, targetLanguage); err == nil && cached != nil {
		return cached.TranslatedContent, nil, 0, 0
	}

	markdown, err := textutil.CleanContent(content)
	if err != nil {
		slog.WarnContext(ctx, "orchestrator: summary markdown conversion failed, using raw content", slog.String("error", err.Error()))
		markdown = content
	}

	const delimiter = "."
	minChunkSize := s.MinSummaryChunkSize
	if minChunkSize <= 0 {
		minChunkSize = 500
	}

	maxChunks := len(textutil.ChunkOnDelimiter(markdown, minChunkSize, delimiter))
	if maxChunks < 1 {
		maxChunks = 1
	}
	numChunks := 1 + int(detail*float64(maxChunks-1))
	if numChunks < 1 {
		numChunks = 1
	}

	docTokens := textutil.Tokenize(markdown)
	chunkSize := docTokens / numChunks
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}

	textChunks := textutil.ChunkOnDelimiter(markdown, chunkSize, delimiter)
	if len(textChunks) == 0 {
		textChunks = []string{markdown}
	}

	var partials []string
	for _, chunk := range textChunks {
		prompt := chunk
		if s.SummarizeRecursively && len(partials) > 0 {
			prompt = fmt.Sprintf(recursiveSummaryTemplate, strings.Join(partials, "\n\n"), chunk)
		}

		partial, tk, ch := s.summarizeOneChunk(ctx, prompt, targetLanguage, eng)
		tokens += tk
		characters += ch
		if partial != "" {
			partials = append(partials, partial)
		}
	}

	summary = strings.Join(partials, "<br/>")
	if summary == "" {
		return "", nil, tokens, characters
	}

	row = &entity.TranslatedContent{
		Hash:               entity.HashContent(cacheKey, targetLanguage),
		OriginalContent:    cacheKey,
		TranslatedLanguage: targetLanguage,
		TranslatedContent:  summary,
		Tokens:             tokens,
		Characters:         characters,
	}
	return summary, row, tokens, characters
}

// summarizeOneChunk retries a single chunk's summarize call up to
// maxEngineRetries times on an empty result, mirroring the per-unit retry
// contract the other two translation stages use.
func (s *Service) summarizeOneChunk(ctx context.Context, text, targetLanguage string, eng engine.Engine) (summary string, tokens, characters int64) {
	for attempt := 0; attempt < maxEngineRetries; attempt++ {
		result, err := eng.Summarize(ctx, text, targetLanguage)
		tokens += result.Tokens
		characters += result.Characters
		if err != nil {
			continue
		}
		if result.Text != "" {
			return result.Text, tokens, characters
		}
	}
	return "", tokens, characters
}
