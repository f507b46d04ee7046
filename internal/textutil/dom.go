package textutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipTags hold text nodes that should never be translated on their own:
// code/markup, and tags whose text is metadata rather than article prose.
var skipTags = map[string]bool{
	"pre": true, "code": true, "script": true, "style": true,
	"head": true, "title": true, "meta": true, "abbr": true,
	"address": true, "samp": true, "kbd": true, "bdo": true,
	"cite": true, "dfn": true, "iframe": true,
}

var (
	urlPattern      = regexp.MustCompile(`^http`)
	emailPattern    = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	symbolsOnlyRule = regexp.MustCompile(`^[\d\W]+$`)
)

// ShouldSkipText reports whether a text node should be left untranslated:
// empty text, text nested under a skip tag, or text that's just a URL,
// email address, or a run of digits/punctuation.
func ShouldSkipText(node *html.Node) bool {
	if node.Type == html.CommentNode {
		return true
	}

	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && skipTags[strings.ToLower(p.Data)] {
			return true
		}
	}

	text := strings.TrimSpace(node.Data)
	if text == "" {
		return true
	}

	return urlPattern.MatchString(text) || emailPattern.MatchString(text) || symbolsOnlyRule.MatchString(text)
}

// unwrapTags are inline formatting tags whose content should be promoted to
// replace the tag itself before per-text-node translation, so "foo <b>bar</b>
// baz" becomes three sibling-level text nodes instead of one element boundary
// splitting "bar" away from its sentence.
var unwrapTags = []string{"i", "a", "strong", "b", "em", "span", "sup", "sub", "mark", "del", "ins", "u", "s", "small"}

// UnwrapInlineTags removes the listed inline tags from doc in place,
// promoting their children to take their place, and returns the resulting
// HTML.
func UnwrapInlineTags(doc *goquery.Document) (string, error) {
	for _, tag := range unwrapTags {
		doc.Find(tag).Each(func(_ int, sel *goquery.Selection) {
			contents := sel.Contents()
			sel.ReplaceWithSelection(contents)
		})
	}
	return doc.Html()
}
