package testsupport

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// FeedItem describes one RSS item served by FeedServer.
type FeedItem struct {
	Title       string
	Link        string
	GUID        string
	Description string
	Published   time.Time
}

// FeedServer serves RSS documents keyed by path. Unknown paths return 404.
type FeedServer struct {
	*httptest.Server

	mu       sync.Mutex
	feeds    map[string][]FeedItem
	statuses map[string]int
	raw      map[string]string
	hits     atomic.Int64
}

// NewFeedServer starts a feed server and registers cleanup.
func NewFeedServer(t testing.TB) *FeedServer {
	t.Helper()

	fs := &FeedServer{
		feeds:    make(map[string][]FeedItem),
		statuses: make(map[string]int),
		raw:      make(map[string]string),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

// SetItems replaces the items served at path and returns the feed URL.
func (fs *FeedServer) SetItems(path string, items ...FeedItem) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.feeds[path] = items
	delete(fs.statuses, path)
	delete(fs.raw, path)
	return fs.URL + path
}

// SetStatus makes path answer with the given HTTP status.
func (fs *FeedServer) SetStatus(path string, status int) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.statuses[path] = status
	return fs.URL + path
}

// SetRaw serves body verbatim at path.
func (fs *FeedServer) SetRaw(path, body string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.raw[path] = body
	delete(fs.statuses, path)
	return fs.URL + path
}

// Hits returns the number of requests served.
func (fs *FeedServer) Hits() int64 {
	return fs.hits.Load()
}

func (fs *FeedServer) serve(w http.ResponseWriter, r *http.Request) {
	fs.hits.Add(1)
	fs.mu.Lock()
	status, hasStatus := fs.statuses[r.URL.Path]
	raw, hasRaw := fs.raw[r.URL.Path]
	items, hasItems := fs.feeds[r.URL.Path]
	fs.mu.Unlock()

	switch {
	case hasStatus:
		http.Error(w, http.StatusText(status), status)
	case hasRaw:
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(raw))
	case hasItems:
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(RSSDocument("Test Feed", items...)))
	default:
		http.NotFound(w, r)
	}
}

// RSSDocument renders a minimal RSS 2.0 document.
func RSSDocument(title string, items ...FeedItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0"><channel>`)
	fmt.Fprintf(&b, "<title>%s</title><link>http://example.com/</link><description>test</description>", html.EscapeString(title))
	for _, item := range items {
		b.WriteString("<item>")
		if item.Title != "" {
			fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(item.Title))
		}
		if item.Link != "" {
			fmt.Fprintf(&b, "<link>%s</link>", html.EscapeString(item.Link))
		}
		if item.GUID != "" {
			fmt.Fprintf(&b, `<guid isPermaLink="false">%s</guid>`, html.EscapeString(item.GUID))
		}
		if item.Description != "" {
			fmt.Fprintf(&b, "<description>%s</description>", html.EscapeString(item.Description))
		}
		if !item.Published.IsZero() {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", item.Published.UTC().Format(time.RFC1123Z))
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}
