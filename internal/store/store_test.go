package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/newsradar/pkg/feed"
	"github.com/finwatch/newsradar/pkg/pipeline"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testArticle(url, title, source string) feed.Article {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return feed.Article{
		URL:         url,
		Title:       title,
		Source:      source,
		PublishedAt: now,
		CollectedAt: now,
	}
}

func TestSaveArticlesSkipsDuplicateURLs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveArticles(ctx, []feed.Article{
		testArticle("https://example.com/a", "Fed raises rates", "Reuters"),
		testArticle("https://example.com/b", "Oil prices surge", "CNBC"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	// The same URL again is a no-op, even with a different title.
	saved, err = s.SaveArticles(ctx, []feed.Article{
		testArticle("https://example.com/a", "Fed raises rates again", "Reuters"),
		testArticle("https://example.com/c", "Markets rally", "CNN"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	articles, err := s.ListArticles(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "Fed raises rates", articles[0].Title)
}

func TestListArticlesOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1 := testArticle("https://example.com/1", "first", "Reuters")
	a2 := testArticle("https://example.com/2", "second", "CNBC")
	a3 := testArticle("https://example.com/3", "third", "Reuters")
	a3.CollectedAt = a3.CollectedAt.Add(time.Hour)

	_, err := s.SaveArticles(ctx, []feed.Article{a1, a2, a3})
	require.NoError(t, err)

	all, err := s.ListArticles(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"first", "second", "third"}, titles(all))

	reuters, err := s.ListArticles(ctx, ListOpts{Source: "Reuters"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, titles(reuters))

	recent, err := s.ListArticles(ctx, ListOpts{Since: a1.CollectedAt.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, []string{"third"}, titles(recent))

	limited, err := s.ListArticles(ctx, ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, titles(limited))
}

func TestCountArticlesBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveArticles(ctx, []feed.Article{
		testArticle("https://example.com/1", "a", "Reuters"),
		testArticle("https://example.com/2", "b", "Reuters"),
		testArticle("https://example.com/3", "c", "CNBC"),
	})
	require.NoError(t, err)

	counts, err := s.CountArticlesBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Reuters": 2, "CNBC": 1}, counts)
}

func TestReplaceResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clusters := []pipeline.Cluster{
		{ID: 0, Members: []pipeline.Member{
			{Article: testArticle("https://example.com/a", "Fed raises rates", "Reuters"), CleanTitle: "fed raises rates"},
			{Article: testArticle("https://example.com/b", "Fed raises rates!", "CNBC"), CleanTitle: "fed raises rates"},
		}},
		{ID: 1, Members: []pipeline.Member{
			{Article: testArticle("https://example.com/c", "Oil surges", "CNN"), CleanTitle: "oil surges"},
		}},
	}
	ranked := []pipeline.HotnessScore{
		{ClusterID: 0, Score: 0.48, RepresentativeTitle: "Fed raises rates",
			Breakdown: pipeline.Breakdown{Size: 0.2, Authority: 1.0, Surprise: 0, Diversity: 0.4}},
		{ClusterID: 1, Score: 0.31, RepresentativeTitle: "Oil surges",
			Breakdown: pipeline.Breakdown{Size: 0.1, Authority: 0.8, Surprise: 0.2, Diversity: 0.2}},
	}

	require.NoError(t, s.ReplaceResults(ctx, clusters, ranked))

	members, err := s.ListClusteredArticles(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, 0, members[0].ClusterID)
	assert.Equal(t, "https://example.com/a", members[0].URL)
	assert.Equal(t, "fed raises rates", members[0].CleanTitle)
	assert.Equal(t, 1, members[2].ClusterID)

	rows, err := s.ListHotness(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, 0.48, rows[0].Score)
	assert.Equal(t, "Fed raises rates", rows[0].RepresentativeTitle)
	assert.Equal(t, 1.0, rows[0].Authority)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, 0.31, rows[1].Score)
}

func TestReplaceResultsReplacesPriorRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []pipeline.Cluster{
		{ID: 0, Members: []pipeline.Member{
			{Article: testArticle("https://example.com/old", "Old story", "Reuters"), CleanTitle: "old story"},
		}},
	}
	require.NoError(t, s.ReplaceResults(ctx, first, []pipeline.HotnessScore{
		{ClusterID: 0, Score: 0.9, RepresentativeTitle: "Old story"},
	}))

	second := []pipeline.Cluster{
		{ID: 0, Members: []pipeline.Member{
			{Article: testArticle("https://example.com/new", "New story", "CNBC"), CleanTitle: "new story"},
		}},
	}
	require.NoError(t, s.ReplaceResults(ctx, second, []pipeline.HotnessScore{
		{ClusterID: 0, Score: 0.5, RepresentativeTitle: "New story"},
	}))

	members, err := s.ListClusteredArticles(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "https://example.com/new", members[0].URL)

	rows, err := s.ListHotness(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "New story", rows[0].RepresentativeTitle)
}

func TestReplaceResultsEmptyRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceResults(ctx, nil, nil))

	members, err := s.ListClusteredArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	rows, err := s.ListHotness(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func titles(articles []feed.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}
