package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/newsradar/pkg/feed"
)

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func article(url, title, source string) feed.Article {
	return feed.Article{URL: url, Title: title, Source: source}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}, ok: true},
		{name: "negative eps", mutate: func(c *Config) { c.Eps = -0.1 }, ok: false},
		{name: "zero eps allowed", mutate: func(c *Config) { c.Eps = 0 }, ok: true},
		{name: "zero min_samples", mutate: func(c *Config) { c.MinSamples = 0 }, ok: false},
		{name: "zero top_k", mutate: func(c *Config) { c.TopK = 0 }, ok: false},
		{name: "negative top_k", mutate: func(c *Config) { c.TopK = -3 }, ok: false},
		{name: "zero vocabulary cap", mutate: func(c *Config) { c.MaxFeatures = 0 }, ok: false},
		{
			name:   "weights not summing to one",
			mutate: func(c *Config) { c.Hotness.Weights = ComponentWeights{Size: 0.5, Authority: 0.5, Surprise: 0.5, Diversity: 0.5} },
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg, zerolog.Nop())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRunEmptyBatch(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	clusters, ranked, err := p.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, clusters)
	assert.Empty(t, ranked)
}

func TestRunEndToEnd(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/1", "Stocks rally as markets surge to record high", "CNBC"),
		article("https://b.example/1", "Stocks rally as markets surge to a record high", "Reuters"),
		article("https://c.example/1", "Oil pipeline maintenance planned for spring", "SomeBlog"),
	}

	clusters, ranked, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	require.Len(t, clusters, 2)
	assert.Equal(t, 0, clusters[0].ID)
	require.Len(t, clusters[0].Members, 2)
	assert.Equal(t, "Stocks rally as markets surge to record high", clusters[0].RepresentativeTitle())
	require.Len(t, clusters[1].Members, 1)

	require.Len(t, ranked, 2)
	// Cluster 0: size 0.2, authority 1.0 (Reuters), surprise 1, diversity 0.4.
	assert.InDelta(t, 0.2*0.4+1.0*0.3+1.0*0.2+0.4*0.1, ranked[0].Score, 1e-12)
	assert.Equal(t, 0, ranked[0].ClusterID)
	// Cluster 1: singleton from an unknown source, no surprise keyword.
	assert.InDelta(t, 0.1*0.4+0.5*0.3+0.2*0.1, ranked[1].Score, 1e-12)
}

func TestRunIdenticalCleanTitlesMerge(t *testing.T) {
	// Same headline, different URL and source: merged by clustering, not
	// dropped upstream.
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/x", "Fed hikes rates!", "CNBC"),
		article("https://b.example/y", "Fed hikes rates", "CNN"),
	}

	clusters, _, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 2)
	assert.Equal(t, clusters[0].Members[0].CleanTitle, clusters[0].Members[1].CleanTitle)
}

func TestRunExactURLRepeatsIgnored(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/1", "Markets open flat", "CNBC"),
		article("https://a.example/1", "Markets open flat", "CNBC"),
	}

	clusters, _, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	total := 0
	for _, c := range clusters {
		total += len(c.Members)
	}
	assert.Equal(t, 1, total)
}

func TestRunPartitionComplete(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/1", "Gold prices steady", "Reuters"),
		article("https://a.example/2", "Gold prices steady ahead of data", "CNBC"),
		article("https://a.example/3", "Tech selloff deepens", "CNN"),
		article("https://a.example/4", "Housing starts fall sharply", "Yahoo"),
		article("https://a.example/5", "", "SomeBlog"), // degenerate title
	}

	clusters, _, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, c := range clusters {
		require.NotEmpty(t, c.Members)
		for _, m := range c.Members {
			seen[m.URL]++
		}
	}

	assert.Len(t, seen, len(articles))
	for url, count := range seen {
		assert.Equal(t, 1, count, "article %s appears in exactly one cluster", url)
	}
}

func TestRunDeterministic(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/1", "Dollar surges against yen", "Reuters"),
		article("https://a.example/2", "Dollar surges versus yen", "CNBC"),
		article("https://a.example/3", "Crypto markets in crisis", "SomeBlog"),
		article("https://a.example/4", "Rate cut hopes lift equities", "CNN"),
	}

	c1, r1, err := p.Run(context.Background(), articles)
	require.NoError(t, err)
	c2, r2, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, r1, r2)
}

func TestRunTopKTruncation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = 2
	p := newTestPipeline(t, cfg)

	articles := []feed.Article{
		article("https://a.example/1", "Story one entirely unique words", "CNBC"),
		article("https://a.example/2", "Another completely different headline", "CNN"),
		article("https://a.example/3", "Third unrelated subject matter", "Yahoo"),
		article("https://a.example/4", "Fourth distinct topic altogether", "Reuters"),
	}

	clusters, ranked, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	assert.Len(t, clusters, 4, "clusters are complete")
	assert.Len(t, ranked, 2, "ranking is truncated to top_k")
}

func TestRunCancelledContext(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Run(ctx, []feed.Article{article("https://a.example/1", "Anything", "CNBC")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunScoresBounded(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	articles := []feed.Article{
		article("https://a.example/1", "Record crash surges into crisis rally deal", "Reuters"),
		article("https://a.example/2", "Record crash surges into crisis rally deal", "Bloomberg"),
		article("https://a.example/3", "mild news", "nobody"),
	}

	_, ranked, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	for _, h := range ranked {
		assert.GreaterOrEqual(t, h.Score, 0.0)
		assert.LessOrEqual(t, h.Score, 1.0)
	}
}
