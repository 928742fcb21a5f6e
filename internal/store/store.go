package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/finwatch/newsradar/pkg/feed"
	"github.com/finwatch/newsradar/pkg/pipeline"
)

// ClusteredArticle is one row of the derived clusters table.
type ClusteredArticle struct {
	ClusterID   int       `db:"cluster_id" json:"cluster_id"`
	URL         string    `db:"url" json:"url"`
	Title       string    `db:"title" json:"title"`
	Source      string    `db:"source" json:"source"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	CleanTitle  string    `db:"clean_title" json:"clean_title"`
}

// HotnessRow is one row of the ranked hotness table. Position is the rank
// order the pipeline produced; listing preserves it exactly.
type HotnessRow struct {
	ClusterID           int     `db:"cluster_id" json:"cluster_id"`
	Score               float64 `db:"score" json:"score"`
	RepresentativeTitle string  `db:"representative_title" json:"representative_title"`
	Size                float64 `db:"size_component" json:"size_component"`
	Authority           float64 `db:"authority_component" json:"authority_component"`
	Surprise            float64 `db:"surprise_component" json:"surprise_component"`
	Diversity           float64 `db:"diversity_component" json:"diversity_component"`
	Position            int     `db:"position" json:"position"`
}

// ListOpts controls article listing.
type ListOpts struct {
	Source string
	Since  time.Time
	Limit  int
}

// Store is the persistence interface the pipeline wiring depends on. The
// core itself never touches it; collaborators inject it.
type Store interface {
	SaveArticles(ctx context.Context, articles []feed.Article) (int, error)
	ListArticles(ctx context.Context, opts ListOpts) ([]feed.Article, error)
	CountArticlesBySource(ctx context.Context) (map[string]int, error)

	ReplaceResults(ctx context.Context, clusters []pipeline.Cluster, ranked []pipeline.HotnessScore) error
	ListClusteredArticles(ctx context.Context) ([]ClusteredArticle, error)
	ListHotness(ctx context.Context) ([]HotnessRow, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveArticles inserts articles, ignoring URLs already present. Returns the
// number of newly inserted rows.
func (s *SQLiteStore) SaveArticles(ctx context.Context, articles []feed.Article) (int, error) {
	saved := 0
	for i := range articles {
		a := &articles[i]
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO articles (url, title, source, published_at, collected_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(url) DO NOTHING
		`, a.URL, a.Title, a.Source, a.PublishedAt, a.CollectedAt)
		if err != nil {
			return saved, fmt.Errorf("save article %s: %w", a.URL, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}
	return saved, nil
}

func (s *SQLiteStore) ListArticles(ctx context.Context, opts ListOpts) ([]feed.Article, error) {
	query := "SELECT url, title, source, published_at, collected_at FROM articles WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if !opts.Since.IsZero() {
		query += " AND collected_at >= ?"
		args = append(args, opts.Since)
	}

	// Batch order is insertion order; rowid preserves it.
	query += " ORDER BY rowid"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var articles []feed.Article
	if err := s.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *SQLiteStore) CountArticlesBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) as cnt FROM articles GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count articles by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[src] = cnt
	}
	return counts, rows.Err()
}

// ReplaceResults atomically swaps the derived tables for the output of one
// pipeline run. Prior output survives untouched unless the whole
// transaction commits.
func (s *SQLiteStore) ReplaceResults(ctx context.Context, clusters []pipeline.Cluster, ranked []pipeline.HotnessScore) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clustered_articles"); err != nil {
		return fmt.Errorf("clear clusters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM hotness"); err != nil {
		return fmt.Errorf("clear hotness: %w", err)
	}

	for _, c := range clusters {
		for _, m := range c.Members {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO clustered_articles (cluster_id, url, title, source, published_at, clean_title)
				VALUES (?, ?, ?, ?, ?, ?)
			`, c.ID, m.URL, m.Title, m.Source, m.PublishedAt, m.CleanTitle); err != nil {
				return fmt.Errorf("insert cluster %d member %s: %w", c.ID, m.URL, err)
			}
		}
	}

	for pos, h := range ranked {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO hotness (cluster_id, score, representative_title,
				size_component, authority_component, surprise_component, diversity_component, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, h.ClusterID, h.Score, h.RepresentativeTitle,
			h.Breakdown.Size, h.Breakdown.Authority, h.Breakdown.Surprise, h.Breakdown.Diversity,
			pos); err != nil {
			return fmt.Errorf("insert hotness for cluster %d: %w", h.ClusterID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListClusteredArticles(ctx context.Context) ([]ClusteredArticle, error) {
	var rows []ClusteredArticle
	err := s.db.SelectContext(ctx, &rows, `
		SELECT cluster_id, url, title, source, published_at, clean_title
		FROM clustered_articles ORDER BY cluster_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list clustered articles: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) ListHotness(ctx context.Context) ([]HotnessRow, error) {
	var rows []HotnessRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT cluster_id, score, representative_title,
			size_component, authority_component, surprise_component, diversity_component, position
		FROM hotness ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list hotness: %w", err)
	}
	return rows, nil
}
