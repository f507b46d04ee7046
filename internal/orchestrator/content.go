package orchestrator

import (
	"context"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
)

// translateContent dispatches to tag mode (default) or chunk mode
// (quality) and returns the translated body, any cache rows produced along
// the way, and the aggregate tokens/characters spent translating it.
func (s *Service) translateContent(
	ctx context.Context,
	content, title, targetLanguage, sourceLanguage string,
	quality bool,
	eng engine.Engine,
) (translated string, rows []*entity.TranslatedContent, tokens, characters int64) {
	if content == "" {
		return content, nil, 0, 0
	}

	if quality {
		return s.translateChunkMode(ctx, content, title, targetLanguage, sourceLanguage, eng)
	}
	return s.translateTagMode(ctx, content, title, targetLanguage, sourceLanguage, eng)
}
