package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Feed is a named RSS/Atom feed URL.
type Feed struct {
	Name string
	URL  string
}

// RSS collects headlines from RSS/Atom feeds.
type RSS struct {
	client   *http.Client
	parser   *gofeed.Parser
	feeds    []Feed
	filter   *Filter
	titleLen int
	log      zerolog.Logger
}

// NewRSS creates a new RSS collector. titleLen caps headline length for
// display; 0 means no truncation.
func NewRSS(feeds []Feed, filter *Filter, titleLen int, log zerolog.Logger) *RSS {
	return &RSS{
		client:   &http.Client{Timeout: 15 * time.Second},
		parser:   gofeed.NewParser(),
		feeds:    feeds,
		filter:   filter,
		titleLen: titleLen,
		log:      log,
	}
}

func (r *RSS) Name() string { return "rss" }

// Collect fetches every configured feed. A failing feed is logged and
// skipped; the batch is whatever the remaining feeds produced.
func (r *RSS) Collect(ctx context.Context) ([]Article, error) {
	var all []Article

	for _, f := range r.feeds {
		articles, err := r.collectFeed(ctx, f)
		if err != nil {
			r.log.Warn().Str("feed", f.Name).Err(err).Msg("feed fetch failed")
			continue
		}
		all = append(all, articles...)
	}

	return all, nil
}

func (r *RSS) collectFeed(ctx context.Context, f Feed) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", f.Name, err)
	}
	req.Header.Set("User-Agent", "newsradar/1.0")
	req.Header.Set("Accept", "application/rss+xml,application/xml,text/xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", f.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", f.Name, err)
	}

	now := time.Now().UTC()
	var articles []Article

	for _, entry := range parsed.Items {
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		if r.filter != nil && !r.filter.Matches(entry.Title+" "+entry.Description) {
			continue
		}

		// Missing publish dates fall back to collection time.
		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		articles = append(articles, Article{
			URL:         entry.Link,
			Title:       truncate(entry.Title, r.titleLen),
			Source:      f.Name,
			PublishedAt: published,
			CollectedAt: now,
		})
	}

	return articles, nil
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
