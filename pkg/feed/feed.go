package feed

import (
	"context"
	"time"
)

// Article is the standardized record produced by every collector.
// URL is the identity of an article within a batch; the store enforces
// it with a primary key and the pipeline drops exact repeats.
type Article struct {
	URL         string    `json:"url" db:"url"`
	Title       string    `json:"title" db:"title"`
	Source      string    `json:"source" db:"source"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CollectedAt time.Time `json:"collected_at" db:"collected_at"`
}

// Source is the interface every collector must implement.
type Source interface {
	Name() string
	Collect(ctx context.Context) ([]Article, error)
}
