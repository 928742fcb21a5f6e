package pipeline

import "strings"

// ComponentWeights defines the influence of each hotness signal. The four
// weights must sum to 1 so the final score stays in [0,1].
type ComponentWeights struct {
	Size      float64 `yaml:"size" json:"size"`
	Authority float64 `yaml:"authority" json:"authority"`
	Surprise  float64 `yaml:"surprise" json:"surprise"`
	Diversity float64 `yaml:"diversity" json:"diversity"`
}

// DefaultComponentWeights returns the baseline component weighting.
func DefaultComponentWeights() ComponentWeights {
	return ComponentWeights{Size: 0.4, Authority: 0.3, Surprise: 0.2, Diversity: 0.1}
}

// Sum returns the total of the four weights.
func (w ComponentWeights) Sum() float64 {
	return w.Size + w.Authority + w.Surprise + w.Diversity
}

// HotnessConfig is the fixed configuration of the scorer.
type HotnessConfig struct {
	// SourceWeights maps a publisher to its authority weight. Sources
	// absent from the map fall back to DefaultSourceWeight.
	SourceWeights map[string]float64
	// DefaultSourceWeight applies to unknown publishers.
	DefaultSourceWeight float64
	// SurpriseKeywords are matched as case-insensitive substrings of
	// member titles.
	SurpriseKeywords []string
	Weights          ComponentWeights
}

// Breakdown contains the clamped per-signal scores behind a final hotness
// value, each in [0,1] before weighting.
type Breakdown struct {
	Size      float64 `json:"size"`
	Authority float64 `json:"authority"`
	Surprise  float64 `json:"surprise"`
	Diversity float64 `json:"diversity"`
}

// HotnessScore is one scored cluster.
type HotnessScore struct {
	ClusterID           int       `json:"cluster_id"`
	Score               float64   `json:"score"`
	RepresentativeTitle string    `json:"representative_title"`
	Breakdown           Breakdown `json:"breakdown"`
}

// ScoreCluster computes the weighted hotness of a cluster. Every component
// is clamped to [0,1] before weighting, so with weights summing to 1 the
// score is guaranteed to land in [0,1].
func ScoreCluster(c Cluster, cfg HotnessConfig) HotnessScore {
	sources := make(map[string]struct{})
	authority := 0.0
	surprise := 0.0

	for _, m := range c.Members {
		if _, seen := sources[m.Source]; !seen {
			sources[m.Source] = struct{}{}
			w, ok := cfg.SourceWeights[m.Source]
			if !ok {
				w = cfg.DefaultSourceWeight
			}
			if w > authority {
				authority = w
			}
		}

		if surprise == 0 && containsAnyKeyword(m.Title, cfg.SurpriseKeywords) {
			surprise = 1
		}
	}

	b := Breakdown{
		Size:      clamp01(float64(len(c.Members)) / 10),
		Authority: clamp01(authority),
		Surprise:  surprise,
		Diversity: clamp01(float64(len(sources)) / 5),
	}

	score := b.Size*cfg.Weights.Size +
		b.Authority*cfg.Weights.Authority +
		b.Surprise*cfg.Weights.Surprise +
		b.Diversity*cfg.Weights.Diversity

	return HotnessScore{
		ClusterID:           c.ID,
		Score:               score,
		RepresentativeTitle: c.RepresentativeTitle(),
		Breakdown:           b,
	}
}

func containsAnyKeyword(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
