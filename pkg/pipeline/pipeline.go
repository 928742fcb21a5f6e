package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/finwatch/newsradar/pkg/feed"
)

// Member is an article together with its comparison key.
type Member struct {
	feed.Article
	CleanTitle string `json:"clean_title" db:"clean_title"`
}

// Cluster is a materialized story group. Members keep their original batch
// order; clusters are recreated from scratch on every run.
type Cluster struct {
	ID      int      `json:"id"`
	Members []Member `json:"members"`
}

// RepresentativeTitle is the title of the first member by batch order.
func (c Cluster) RepresentativeTitle() string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0].Title
}

// Config is the full tuning surface of the pipeline.
type Config struct {
	// Eps is the maximum cosine distance (1 − similarity) at which two
	// headlines are directly connected.
	Eps float64
	// MinSamples is the neighbor count (self included) that makes a
	// headline a core point.
	MinSamples int
	// TopK bounds the ranked output.
	TopK int
	// MaxFeatures caps the TF-IDF vocabulary.
	MaxFeatures int
	// StopWords are excluded from the vocabulary.
	StopWords []string
	Hotness   HotnessConfig
}

// DefaultConfig mirrors the recommended tuning: headlines must be at least
// 70% similar to connect, pairs suffice to form a cluster.
func DefaultConfig() Config {
	return Config{
		Eps:         0.3,
		MinSamples:  2,
		TopK:        10,
		MaxFeatures: 1000,
		StopWords:   EnglishStopWords(),
		Hotness: HotnessConfig{
			SourceWeights: map[string]float64{
				"Reuters":         1.0,
				"CNBC":            0.9,
				"Bloomberg":       0.9,
				"Financial Times": 0.9,
				"CNN":             0.8,
				"Yahoo":           0.7,
				"Other":           0.5,
			},
			DefaultSourceWeight: 0.5,
			SurpriseKeywords: []string{
				"surge", "plunge", "crisis", "deal", "crash",
				"rally", "record", "high", "low",
			},
			Weights: DefaultComponentWeights(),
		},
	}
}

// Validate fails fast on parameters that would corrupt a run. It is called
// before any stage executes.
func (c Config) Validate() error {
	if c.Eps < 0 {
		return fmt.Errorf("pipeline config: eps must be non-negative, got %v", c.Eps)
	}
	if c.MinSamples < 1 {
		return fmt.Errorf("pipeline config: min_samples must be at least 1, got %d", c.MinSamples)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("pipeline config: top_k must be positive, got %d", c.TopK)
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("pipeline config: max_features must be positive, got %d", c.MaxFeatures)
	}
	if sum := c.Hotness.Weights.Sum(); math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("pipeline config: component weights must sum to 1, got %v", sum)
	}
	return nil
}

// Pipeline is the dedup/clustering/scoring core. One Run consumes one
// complete snapshot of articles and produces one complete set of clusters
// and ranked scores; nothing is carried across runs.
type Pipeline struct {
	cfg Config
	log zerolog.Logger
}

// New validates cfg and builds a Pipeline.
func New(cfg Config, log zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, log: log}, nil
}

// Run executes the linear stage chain: normalize, vectorize, cluster,
// score, rank. An empty batch short-circuits to empty output with no
// error. Exact URL repeats are dropped, first occurrence wins. The context
// is consulted between stages; a cancelled run is discarded whole.
func (p *Pipeline) Run(ctx context.Context, articles []feed.Article) ([]Cluster, []HotnessScore, error) {
	batch := dedupeByURL(articles)
	if len(batch) == 0 {
		return nil, nil, nil
	}

	clean := make([]string, len(batch))
	for i, a := range batch {
		clean[i] = Normalize(a.Title)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	vec := Vectorize(clean, VectorizeOptions{
		MaxFeatures: p.cfg.MaxFeatures,
		StopWords:   p.cfg.StopWords,
	})

	labels := PromoteSingletons(DBSCAN(DistanceMatrix(vec.Similarity), p.cfg.Eps, p.cfg.MinSamples))

	clusters, err := buildClusters(batch, clean, labels)
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	scores := make([]HotnessScore, len(clusters))
	for i, c := range clusters {
		s := ScoreCluster(c, p.cfg.Hotness)
		if s.Score < 0 || s.Score > 1 {
			return nil, nil, fmt.Errorf("hotness for cluster %d out of bounds: %v", c.ID, s.Score)
		}
		scores[i] = s
	}

	ranked := Rank(scores, p.cfg.TopK)

	p.log.Debug().
		Int("articles", len(batch)).
		Int("clusters", len(clusters)).
		Int("ranked", len(ranked)).
		Msg("pipeline run complete")

	return clusters, ranked, nil
}

// dedupeByURL drops exact URL repeats, keeping the first occurrence.
func dedupeByURL(articles []feed.Article) []feed.Article {
	seen := make(map[string]struct{}, len(articles))
	var out []feed.Article
	for _, a := range articles {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

// buildClusters materializes the label partition, verifying that every
// article landed in exactly one cluster. Clusters come back in id order;
// members keep batch order.
func buildClusters(batch []feed.Article, clean []string, labels []int) ([]Cluster, error) {
	if len(labels) != len(batch) {
		return nil, fmt.Errorf("clustering returned %d labels for %d articles", len(labels), len(batch))
	}

	byID := make(map[int][]Member)
	for i, label := range labels {
		if label < 0 {
			return nil, fmt.Errorf("article %q left unassigned after singleton promotion", batch[i].URL)
		}
		byID[label] = append(byID[label], Member{Article: batch[i], CleanTitle: clean[i]})
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	clusters := make([]Cluster, len(ids))
	for i, id := range ids {
		clusters[i] = Cluster{ID: id, Members: byID[id]}
	}
	return clusters, nil
}
