// Package feedgen serializes a translated feed into the two on-disk
// artifacts the pipeline publishes: Atom 1.0 XML and JSON Feed.
package feedgen

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
)

// Entry is one translated feed item, already display-formatted by the
// orchestrator (title/content hold whatever textutil.SetTranslationDisplay
// produced, not the raw translation).
type Entry struct {
	Title       string
	Link        string
	Content     string
	Summary     string
	PublishedAt time.Time
	UpdatedAt   time.Time
	GUID        string
}

// FromSourceFeed builds the gorilla/feeds representation that will back
// both output formats. title/description are the translated feed's own
// (the source feed's title/subtitle, filled in by the refresher).
func FromSourceFeed(feedURL, title, description string, entries []Entry) *feeds.Feed {
	out := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: feedURL},
		Description: description,
		Created:     time.Now(),
	}

	out.Items = make([]*feeds.Item, 0, len(entries))
	for _, e := range entries {
		out.Items = append(out.Items, &feeds.Item{
			Title:       e.Title,
			Link:        &feeds.Link{Href: e.Link},
			Id:          e.GUID,
			Content:     e.Content,
			Description: e.Summary,
			Created:     e.PublishedAt,
			Updated:     e.UpdatedAt,
		})
	}
	return out
}

// EntriesFromParsed converts an already-translated gofeed.Feed (its items
// mutated in place by the orchestrator) into the Entry shape FromSourceFeed
// expects.
func EntriesFromParsed(parsed *gofeed.Feed, maxPosts int) []Entry {
	n := len(parsed.Items)
	if maxPosts > 0 && maxPosts < n {
		n = maxPosts
	}

	entries := make([]Entry, 0, n)
	for _, it := range parsed.Items[:n] {
		content := it.Content
		if content == "" {
			content = it.Description
		}

		published := time.Now()
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		}
		updated := published
		if it.UpdatedParsed != nil {
			updated = *it.UpdatedParsed
		}

		entries = append(entries, Entry{
			Title:       it.Title,
			Link:        it.Link,
			Content:     content,
			Summary:     it.Description,
			PublishedAt: published,
			UpdatedAt:   updated,
			GUID:        it.GUID,
		})
	}
	return entries
}

// ToAtom renders feed as an Atom 1.0 document.
func ToAtom(feed *feeds.Feed) (string, error) {
	out, err := feed.ToAtom()
	if err != nil {
		return "", fmt.Errorf("rendering atom feed: %w", err)
	}
	return out, nil
}

// ToJSON renders feed as a JSON Feed document.
func ToJSON(feed *feeds.Feed) (string, error) {
	out, err := feed.ToJSON()
	if err != nil {
		return "", fmt.Errorf("rendering json feed: %w", err)
	}
	return out, nil
}
