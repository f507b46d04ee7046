package orchestrator

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"rsstranslator/internal/domain/entity"
	"rsstranslator/internal/engine"
	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/textutil"
)

// translateTagMode implements the default content-translation strategy:
// unwrap inline tags, walk every remaining text node in document order,
// translate the ones the skip rules let through, and splice the results
// back into the DOM in place. This preserves the original markup but
// translates each text node in isolation, without cross-sentence context.
func (s *Service) translateTagMode(
	ctx context.Context,
	content, title, targetLanguage, sourceLanguage string,
	eng engine.Engine,
) (string, []*entity.TranslatedContent, int64, int64) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, nil, 0, 0
	}
	unwrapped, err := textutil.UnwrapInlineTags(doc)
	if err != nil {
		return content, nil, 0, 0
	}

	doc2, err := goquery.NewDocumentFromReader(strings.NewReader(unwrapped))
	if err != nil {
		return content, nil, 0, 0
	}
	body := doc2.Find("body")
	if body.Length() == 0 {
		return content, nil, 0, 0
	}

	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if !textutil.ShouldSkipText(n) {
				nodes = append(nodes, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body.Nodes[0])

	if len(nodes) == 0 {
		out, err := body.Html()
		if err != nil {
			return content, nil, 0, 0
		}
		return out, nil, 0, 0
	}

	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Data
	}
	metrics.ChunksGroupedTotal.WithLabelValues("tag").Add(float64(len(texts)))

	translated, rows, tokens, characters := s.translateUnitsBounded(ctx, texts, title, targetLanguage, sourceLanguage, eng)
	for i, n := range nodes {
		n.Data = translated[i]
	}

	out, err := body.Html()
	if err != nil {
		return content, rows, tokens, characters
	}
	return out, rows, tokens, characters
}
