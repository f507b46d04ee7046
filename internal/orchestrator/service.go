// Package orchestrator drives per-entry title/content/summary translation
// for one TranslatedFeed configuration: it parses the stored source XML,
// walks entries up to the feed's post cap, consults the cache, calls the
// configured engines on misses, and writes the translated Atom/JSON
// artifacts.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/gofeed"

	"rsstranslator/internal/correlation"
	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
	"rsstranslator/internal/feedfetch"
	"rsstranslator/internal/feedgen"
	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/repository"
	"rsstranslator/internal/textutil"
)

// maxEngineRetries bounds the per-unit empty-result retry loop shared by
// title translation, content translation, and summarization.
const maxEngineRetries = 3

// Service runs Orchestrator invocations for a configured set of engines.
// One Service is shared by every translated-feed job in the process; it
// holds no per-run state.
type Service struct {
	cache              repository.CacheRepository
	translatedFeeds    repository.TranslatedFeedRepository
	articleFetcher     *feedfetch.ArticleFetcher
	engines            map[string]engine.Engine
	dataFolder         string
	contentConcurrency int

	MinSummaryChunkSize  int
	SummarizeRecursively bool
}

// NewService creates a Service. engines maps a SourceFeed's opaque
// TranslatorRef/SummaryRef to a live engine.Engine; a ref with no entry
// degrades that stage to a no-op, so a deployment only wires the engines
// its feeds actually reference.
func NewService(
	cache repository.CacheRepository,
	translatedFeeds repository.TranslatedFeedRepository,
	articleFetcher *feedfetch.ArticleFetcher,
	engines map[string]engine.Engine,
	dataFolder string,
	contentConcurrency int,
) *Service {
	if contentConcurrency <= 0 {
		contentConcurrency = 4
	}
	return &Service{
		cache:                cache,
		translatedFeeds:      translatedFeeds,
		articleFetcher:       articleFetcher,
		engines:              engines,
		dataFolder:           dataFolder,
		contentConcurrency:   contentConcurrency,
		MinSummaryChunkSize:  500,
		SummarizeRecursively: true,
	}
}

// Run executes one translation pass for translated against its parent
// source. force bypasses the modified == last_pull short-circuit.
func (s *Service) Run(ctx context.Context, source *entity.SourceFeed, translated *entity.TranslatedFeed, force bool) error {
	ctx = correlation.NewJobContext(ctx)
	start := time.Now()
	defer func() { metrics.OrchestratorRunDuration.Observe(time.Since(start).Seconds()) }()

	if !force && translated.IsCurrent(source.LastPull) {
		translated.Status = entity.ValidityTrue
		return s.translatedFeeds.Update(ctx, translated)
	}

	parsed, err := s.loadSourceXML(source)
	if err != nil {
		slog.ErrorContext(ctx, "orchestrator: failed to load source xml",
			slog.String("sid", translated.SID), slog.String("error", err.Error()))
		translated.Status = entity.ValidityFalse
		_ = s.translatedFeeds.Update(ctx, translated)
		return err
	}

	translatorEngine := s.engines[source.TranslatorRef]
	summaryEngine := s.engines[source.SummaryRef]

	entries := feedgen.EntriesFromParsed(parsed, source.MaxPosts)

	var totalTokens, totalCharacters int64
	for i := range entries {
		tokens, characters := s.processEntry(ctx, &entries[i], source, translated, translatorEngine, summaryEngine)
		totalTokens += tokens
		totalCharacters += characters
	}

	feedTitle := parsed.Title
	feedDescription := parsed.Description
	out := feedgen.FromSourceFeed(source.URL, feedTitle, feedDescription, entries)

	atomXML, err := feedgen.ToAtom(out)
	if err != nil {
		slog.ErrorContext(ctx, "orchestrator: atom serialization failed",
			slog.String("sid", translated.SID), slog.String("error", err.Error()))
		translated.Status = entity.ValidityFalse
		_ = s.translatedFeeds.Update(ctx, translated)
		metrics.OrchestratorEntriesProcessed.WithLabelValues("serialize_failed").Inc()
		return fmt.Errorf("generate atom feed: %w", err)
	}
	jsonFeed, err := feedgen.ToJSON(out)
	if err != nil {
		slog.ErrorContext(ctx, "orchestrator: json serialization failed",
			slog.String("sid", translated.SID), slog.String("error", err.Error()))
		translated.Status = entity.ValidityFalse
		_ = s.translatedFeeds.Update(ctx, translated)
		return fmt.Errorf("generate json feed: %w", err)
	}

	if err := s.writeArtifact(translated.SID+".xml", []byte(atomXML)); err != nil {
		return err
	}
	if err := s.writeArtifact(translated.SID+".json", []byte(jsonFeed)); err != nil {
		return err
	}

	translated.Status = entity.ValidityTrue
	translated.Modified = source.LastPull
	translated.Size = int64(len(atomXML))
	translated.TotalTokens = totalTokens
	translated.TotalCharacters = totalCharacters

	metrics.OrchestratorEntriesProcessed.WithLabelValues("success").Inc()
	return s.translatedFeeds.Update(ctx, translated)
}

func (s *Service) loadSourceXML(source *entity.SourceFeed) (*gofeed.Feed, error) {
	raw, err := os.ReadFile(filepath.Join(s.dataFolder, "feeds", source.SID+".xml"))
	if err != nil {
		return nil, fmt.Errorf("reading stored source xml: %w", err)
	}
	parser := gofeed.NewParser()
	parsed, err := parser.ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing stored source xml: %w", err)
	}
	return parsed, nil
}

func (s *Service) writeArtifact(name string, contents []byte) error {
	path := filepath.Join(s.dataFolder, "feeds", name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, contents, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}
	return nil
}

// processEntry runs the per-entry stages in order: language detect, title
// translation, article fetch, content translation, summarization. Failures
// at any stage are logged and degrade to "keep the original" rather than
// aborting the entry or the feed.
func (s *Service) processEntry(
	ctx context.Context,
	entry *feedgen.Entry,
	source *entity.SourceFeed,
	translated *entity.TranslatedFeed,
	translatorEngine, summaryEngine engine.Engine,
) (tokens, characters int64) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "orchestrator: panic processing entry, skipping",
				slog.Any("panic", r), slog.String("entry_title", entry.Title))
			metrics.OrchestratorEntriesProcessed.WithLabelValues("panic").Inc()
		}
	}()

	sourceLanguage := textutil.DetectLanguage(entry.Title, entry.Content)

	if translated.TranslateTitle && translatorEngine != nil {
		originalTitle := entry.Title
		translatedTitle, row, tk, ch := s.translateOneUnit(ctx, originalTitle, "", translated.TargetLanguage, sourceLanguage, engine.KindTitle, translatorEngine)
		tk, ch = meteredUsage(translatorEngine, tk, ch)
		tokens += tk
		characters += ch
		if row != nil {
			if err := s.cache.BulkPut(ctx, []*entity.TranslatedContent{row}); err != nil {
				slog.WarnContext(ctx, "orchestrator: title cache flush failed", slog.String("error", err.Error()))
			}
		}
		entry.Title = textutil.SetTranslationDisplay(originalTitle, translatedTitle, source.Display, textutil.TitleSeparator)
	}

	if source.FetchArticle && s.articleFetcher != nil {
		if articleHTML, err := s.articleFetcher.FetchArticle(ctx, entry.Link); err != nil {
			slog.WarnContext(ctx, "orchestrator: article fetch failed, keeping feed content",
				slog.String("link", entry.Link), slog.String("error", err.Error()))
		} else {
			entry.Content = articleHTML
		}
	}

	if translated.TranslateBody && translatorEngine != nil {
		originalContent := entry.Content
		if originalContent == "" {
			originalContent = entry.Summary
		}

		translatedContent, rows, tk, ch := s.translateContent(ctx, originalContent, entry.Title, translated.TargetLanguage, sourceLanguage, source.Quality, translatorEngine)
		tk, ch = meteredUsage(translatorEngine, tk, ch)
		tokens += tk
		characters += ch
		if len(rows) > 0 {
			if err := s.cache.BulkPut(ctx, rows); err != nil {
				slog.WarnContext(ctx, "orchestrator: content cache flush failed", slog.String("error", err.Error()))
			}
		}

		composed := textutil.SetTranslationDisplay(originalContent, translatedContent, source.Display, textutil.BodySeparator)
		entry.Content = composed
		entry.Summary = composed
	}

	if translated.Summary && summaryEngine != nil {
		summaryText, row, tk, ch := s.summarizeContent(ctx, entry.Content, translated.TargetLanguage, source.SummaryDetail, summaryEngine)
		tk, ch = meteredUsage(summaryEngine, tk, ch)
		tokens += tk
		characters += ch
		if row != nil {
			if err := s.cache.BulkPut(ctx, []*entity.TranslatedContent{row}); err != nil {
				slog.WarnContext(ctx, "orchestrator: summary cache flush failed", slog.String("error", err.Error()))
			}
		}
		if summaryText != "" {
			original := entry.Content
			entry.Content = textutil.FormatSummary(markdownToHTML(summaryText), original)
			entry.Summary = summaryText
		}
	}

	metrics.OrchestratorEntriesProcessed.WithLabelValues("processed").Inc()
	return tokens, characters
}

// translateOneUnit is the shared cache-lookup + retry-on-empty + fallback
// primitive behind title translation, each content text-node/chunk, and
// (indirectly) summarization chunks. A cache hit costs nothing; a miss
// tries the engine up to maxEngineRetries times, accumulating metering
// from every attempt even if all of them come back empty.
func (s *Service) translateOneUnit(
	ctx context.Context,
	text, titleContext, targetLanguage, sourceLanguage string,
	kind engine.TextKind,
	eng engine.Engine,
) (translated string, row *entity.TranslatedContent, tokens, characters int64) {
	if text == "" {
		return text, nil, 0, 0
	}

	cached, err := s.cache.Lookup(ctx, text, targetLanguage)
	if err != nil {
		slog.WarnContext(ctx, "orchestrator: cache lookup failed, falling back to engine", slog.String("error", err.Error()))
	} else if cached != nil {
		return cached.TranslatedContent, nil, 0, 0
	}

	var result engine.Result
	for attempt := 0; attempt < maxEngineRetries; attempt++ {
		result, err = eng.Translate(ctx, text, targetLanguage, sourceLanguage, kind, titleContext)
		tokens += result.Tokens
		characters += result.Characters
		if err != nil {
			metrics.EngineEmptyResultRetries.WithLabelValues(kindLabel(kind)).Inc()
			continue
		}
		if result.Text != "" {
			return result.Text, &entity.TranslatedContent{
				Hash:               entity.HashContent(text, targetLanguage),
				OriginalContent:    text,
				TranslatedLanguage: targetLanguage,
				TranslatedContent:  result.Text,
				Tokens:             result.Tokens,
				Characters:         result.Characters,
			}, tokens, characters
		}
		metrics.EngineEmptyResultRetries.WithLabelValues(kindLabel(kind)).Inc()
	}

	metrics.EngineFallbackToOriginalTotal.WithLabelValues(kindLabel(kind)).Inc()
	return text, nil, tokens, characters
}

func kindLabel(kind engine.TextKind) string {
	if kind == engine.KindTitle {
		return "title"
	}
	return "content"
}

// meteredUsage keeps only the counter the engine actually meters: tokens for
// token-metered engines, characters for the rest. Both fields exist on
// TranslatedFeed but only one accumulates for a given engine kind.
func meteredUsage(eng engine.Engine, tokens, characters int64) (int64, int64) {
	if eng.MetersTokens() {
		return tokens, 0
	}
	return 0, characters
}
