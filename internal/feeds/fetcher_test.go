package feeds_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsdiet/internal/feeds"
	"newsdiet/internal/services"
	"newsdiet/internal/testsupport"
)

func collect(doc *feeds.Document) []feeds.Candidate {
	var out []feeds.Candidate
	for candidate := range doc.Entries() {
		out = append(out, candidate)
	}
	return out
}

func TestFetchYieldsCandidatesInOrder(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	url := server.SetItems("/rss",
		testsupport.FeedItem{Title: "First", Link: "https://example.com/1", Description: "<p>Hello <b>world</b></p><p>again</p>", Published: published},
		testsupport.FeedItem{Title: "Second", GUID: "guid-2", Description: "plain body"},
	)

	fetcher := feeds.New(feeds.Options{UserAgent: "newsdiet-test"}, nil, nil)
	doc, err := fetcher.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	got := collect(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Title != "First" || got[0].Link != "https://example.com/1" {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[0].Body != "Hello world again" {
		t.Fatalf("expected html reduced to text, got %q", got[0].Body)
	}
	if got[0].Published == nil || !got[0].Published.Equal(published) {
		t.Fatalf("unexpected published time: %v", got[0].Published)
	}
	if got[1].GUID != "guid-2" || got[1].Published != nil {
		t.Fatalf("unexpected second candidate: %+v", got[1])
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(testsupport.RSSDocument("UA", testsupport.FeedItem{Title: "x", Link: "https://example.com/x"})))
	}))
	defer srv.Close()

	fetcher := feeds.New(feeds.Options{UserAgent: "newsdiet-test/1.0"}, nil, nil)
	if _, err := fetcher.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if agent != "newsdiet-test/1.0" {
		t.Fatalf("unexpected user agent %q", agent)
	}
}

func TestFetchSkipsUnusableEntries(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	url := server.SetRaw("/rss", `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Mixed</title>
<item><title>No identity</title><description>body</description></item>
<item><link>https://example.com/empty</link></item>
<item><link>https://example.com/untitled</link><description>only a body</description></item>
<item><title>Good</title><link>https://example.com/good</link></item>
</channel></rss>`)

	doc, err := feeds.New(feeds.Options{}, nil, nil).Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	got := collect(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 usable candidates, got %d: %+v", len(got), got)
	}
	if got[0].Title != feeds.NoTitle {
		t.Fatalf("expected missing title replaced, got %q", got[0].Title)
	}
	if got[1].Title != "Good" {
		t.Fatalf("unexpected candidate order: %+v", got)
	}
	skipped := doc.Skipped()
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped entries, got %+v", skipped)
	}
	if skipped[0].Index != 0 || skipped[1].Index != 1 {
		t.Fatalf("unexpected skipped indexes: %+v", skipped)
	}
}

func TestEntriesStopsEarly(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	url := server.SetItems("/rss",
		testsupport.FeedItem{Title: "a", Link: "https://example.com/a"},
		testsupport.FeedItem{Title: "b", Link: "https://example.com/b"},
		testsupport.FeedItem{Title: "c", Link: "https://example.com/c"},
	)
	doc, err := feeds.New(feeds.Options{}, nil, nil).Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	var seen []string
	for candidate := range doc.Entries() {
		seen = append(seen, candidate.Title)
		if len(seen) == 2 {
			break
		}
	}
	if strings.Join(seen, ",") != "a,b" {
		t.Fatalf("unexpected early stop result: %v", seen)
	}
}

func TestFetchAtomFallsBackToUpdated(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	url := server.SetRaw("/atom", `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <updated>2026-02-01T00:00:00Z</updated>
  <entry>
    <title>Entry</title>
    <link href="https://example.com/atom/1"/>
    <id>urn:uuid:1</id>
    <updated>2026-02-03T04:05:06Z</updated>
    <content type="html">&lt;p&gt;Atom body&lt;/p&gt;</content>
  </entry>
</feed>`)

	doc, err := feeds.New(feeds.Options{}, nil, nil).Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	got := collect(doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	want := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if got[0].Published == nil || !got[0].Published.Equal(want) {
		t.Fatalf("expected updated timestamp fallback, got %v", got[0].Published)
	}
	if got[0].Body != "Atom body" {
		t.Fatalf("expected content fallback, got %q", got[0].Body)
	}
}

func TestFetchReportsHTTPFailure(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	url := server.SetStatus("/broken", http.StatusInternalServerError)

	_, err := feeds.New(feeds.Options{}, nil, nil).Fetch(context.Background(), url)
	var fetchErr *feeds.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status code %d", fetchErr.StatusCode)
	}
	if !errors.Is(err, services.ErrFeedFetch) {
		t.Fatal("expected FetchError to match services.ErrFeedFetch")
	}
	if services.FailureKind(err) != "fetch" {
		t.Fatalf("unexpected failure kind %q", services.FailureKind(err))
	}
}

func TestFetchReportsMalformedDocument(t *testing.T) {
	server := testsupport.NewFeedServer(t)
	url := server.SetRaw("/garbage", "this is not a feed")

	_, err := feeds.New(feeds.Options{}, nil, nil).Fetch(context.Background(), url)
	var fetchErr *feeds.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := feeds.New(feeds.Options{Timeout: 50 * time.Millisecond}, nil, nil).Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEnrichReplacesShortBody(t *testing.T) {
	paragraph := "Continuous delivery pipelines for Python services need careful caching, reproducible builds, and fast feedback, which is why the team rebuilt the runner fleet from scratch this quarter."
	page := "<html><head><title>Pipelines</title></head><body><article><h1>Pipelines</h1>" +
		strings.Repeat("<p>"+paragraph+"</p>", 6) + "</article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	fetcher := feeds.New(feeds.Options{ExtractFullText: true, MinBodyChars: 200}, nil, nil)
	enriched := fetcher.Enrich(context.Background(), feeds.Candidate{Title: "Pipelines", Link: srv.URL + "/post", Body: "short"})
	if !strings.Contains(enriched.Body, "runner fleet") {
		t.Fatalf("expected page text in body, got %q", enriched.Body)
	}
}

func TestEnrichKeepsBodyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	fetcher := feeds.New(feeds.Options{ExtractFullText: true, MinBodyChars: 200}, nil, nil)
	candidate := feeds.Candidate{Title: "x", Link: srv.URL, Body: "short"}
	if got := fetcher.Enrich(context.Background(), candidate); got.Body != "short" {
		t.Fatalf("expected body kept, got %q", got.Body)
	}

	disabled := feeds.New(feeds.Options{}, nil, nil)
	if got := disabled.Enrich(context.Background(), candidate); got.Body != "short" {
		t.Fatalf("expected disabled enrichment to be a no-op, got %q", got.Body)
	}
}

func TestHTMLToText(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"plain   text\n here":                "plain text here",
		"<div>a<span>b</span></div>":         "a b",
		"<p>x</p><script>alert(1)</script>y": "x y",
		"Tom &amp; Jerry":                    "Tom & Jerry",
	}
	for input, want := range cases {
		if got := feeds.HTMLToText(input); got != want {
			t.Errorf("HTMLToText(%q) = %q, want %q", input, got, want)
		}
	}
}
