package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
)

// translateUnitsBounded translates every text in texts through
// translateOneUnit, bounded to s.contentConcurrency concurrent engine
// calls via an errgroup plus a buffered-channel semaphore. Entries
// themselves are processed sequentially by the caller; this fan-out is
// scoped to the independent text units within one entry's content
// translation, which carry no ordering requirement of their own.
func (s *Service) translateUnitsBounded(
	ctx context.Context,
	texts []string,
	title, targetLanguage, sourceLanguage string,
	eng engine.Engine,
) (results []string, rows []*entity.TranslatedContent, tokens, characters int64) {
	results = make([]string, len(texts))
	sem := make(chan struct{}, s.contentConcurrency)
	eg, egCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex

	for i, text := range texts {
		i, text := i, text
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()

			translatedText, row, tk, ch := s.translateOneUnit(egCtx, text, title, targetLanguage, sourceLanguage, engine.KindContent, eng)

			mu.Lock()
			results[i] = translatedText
			if row != nil {
				rows = append(rows, row)
			}
			tokens += tk
			characters += ch
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.WarnContext(ctx, "orchestrator: content unit fan-out ended early", slog.String("error", err.Error()))
	}

	for i, text := range texts {
		if results[i] == "" {
			results[i] = text
		}
	}

	return results, rows, tokens, characters
}
