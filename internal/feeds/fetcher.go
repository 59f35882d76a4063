package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"newsdiet/internal/config"
	"newsdiet/internal/logging"
)

const (
	maxDocumentBytes = 10 << 20
	maxPageBytes     = 5 << 20
	defaultTimeout   = 30 * time.Second
)

// Options controls fetching and enrichment.
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	ExtractFullText bool
	MinBodyChars    int
}

// Fetcher retrieves feed documents over HTTP.
type Fetcher struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// New constructs a Fetcher. A nil client uses a dedicated http.Client.
func New(opts Options, client *http.Client, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		opts:   opts,
		client: client,
		logger: logging.NewComponentLogger(logger, "feeds"),
	}
}

// NewFromConfig builds a Fetcher from the [feeds] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return New(Options{
		Timeout:         cfg.FeedFetchTimeout(),
		UserAgent:       cfg.Feeds.UserAgent,
		ExtractFullText: cfg.Feeds.ExtractFullText,
		MinBodyChars:    cfg.Feeds.MinBodyChars,
	}, nil, logger)
}

// Fetch downloads and parses the feed at feedURL.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	body, status, err := f.get(ctx, feedURL, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8", maxDocumentBytes)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &FetchError{URL: feedURL, StatusCode: status}
	}

	// gofeed parsers keep per-parse state, so each fetch gets its own.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("parse: %w", err)}
	}
	return &Document{
		URL:   feedURL,
		Title: strings.TrimSpace(parsed.Title),
		items: parsed.Items,
	}, nil
}

// Enrich replaces a short candidate body with the readable text of the linked
// page. It returns the candidate unchanged when enrichment is disabled, not
// needed, or fails.
func (f *Fetcher) Enrich(ctx context.Context, candidate Candidate) Candidate {
	if !f.opts.ExtractFullText || candidate.Link == "" {
		return candidate
	}
	if len([]rune(candidate.Body)) >= f.opts.MinBodyChars {
		return candidate
	}
	pageURL, err := url.Parse(candidate.Link)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return candidate
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()
	body, status, err := f.get(ctx, candidate.Link, "text/html, */*;q=0.8", maxPageBytes)
	if err == nil && (status < 200 || status >= 300) {
		err = fmt.Errorf("http %d", status)
	}
	if err != nil {
		f.logger.Debug("full text extraction skipped",
			logging.String("link", candidate.Link),
			logging.Error(err),
		)
		return candidate
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		f.logger.Debug("readability failed",
			logging.String("link", candidate.Link),
			logging.Error(err),
		)
		return candidate
	}
	text := collapseWhitespace(article.TextContent)
	if len(text) > len(candidate.Body) {
		candidate.Body = text
	}
	return candidate
}

func (f *Fetcher) get(ctx context.Context, target, accept string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", accept)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
