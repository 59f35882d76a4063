package feeds

import (
	"iter"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// NoTitle replaces missing entry titles.
const NoTitle = "No Title"

// Candidate is a normalized feed entry ready for deduplication and scoring.
type Candidate struct {
	Title     string
	Link      string
	GUID      string
	Body      string
	Published *time.Time
}

// Document is a parsed feed. It is not safe for concurrent iteration.
type Document struct {
	URL   string
	Title string

	items   []*gofeed.Item
	skipped []EntryError
}

// Len returns the number of raw entries in the document.
func (d *Document) Len() int {
	return len(d.items)
}

// Entries yields normalized candidates in document order. Entries that cannot
// be normalized are recorded for Skipped and not yielded.
func (d *Document) Entries() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		d.skipped = d.skipped[:0]
		for i, item := range d.items {
			candidate, entryErr := normalizeItem(i, item)
			if entryErr != nil {
				d.skipped = append(d.skipped, *entryErr)
				continue
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

// Skipped returns the entries rejected by the most recent iteration.
func (d *Document) Skipped() []EntryError {
	return append([]EntryError(nil), d.skipped...)
}

func normalizeItem(index int, item *gofeed.Item) (Candidate, *EntryError) {
	if item == nil {
		return Candidate{}, &EntryError{Index: index, Reason: "empty entry"}
	}
	title := collapseWhitespace(HTMLToText(item.Title))
	link := strings.TrimSpace(item.Link)
	guid := strings.TrimSpace(item.GUID)
	if link == "" && guid == "" {
		return Candidate{}, &EntryError{Index: index, Title: title, Reason: "no link and no guid"}
	}
	body := HTMLToText(item.Description)
	if body == "" {
		body = HTMLToText(item.Content)
	}
	if title == "" && body == "" {
		return Candidate{}, &EntryError{Index: index, Reason: "no title and no body"}
	}
	if title == "" {
		title = NoTitle
	}
	return Candidate{
		Title:     title,
		Link:      link,
		GUID:      guid,
		Body:      body,
		Published: publishedAt(item),
	}, nil
}

func publishedAt(item *gofeed.Item) *time.Time {
	var ts *time.Time
	switch {
	case item.PublishedParsed != nil:
		ts = item.PublishedParsed
	case item.UpdatedParsed != nil:
		ts = item.UpdatedParsed
	default:
		return nil
	}
	utc := ts.UTC()
	return &utc
}
