package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finwatch/newsradar/pkg/feed"
)

func testHotnessConfig() HotnessConfig {
	return DefaultConfig().Hotness
}

func clusterOf(id int, members ...Member) Cluster {
	return Cluster{ID: id, Members: members}
}

func member(title, source string) Member {
	return Member{
		Article:    feed.Article{URL: "https://example.com/" + Normalize(title), Title: title, Source: source},
		CleanTitle: Normalize(title),
	}
}

func TestScoreClusterMultiSource(t *testing.T) {
	// Three similar headlines from three sources, one of them unknown.
	c := clusterOf(0,
		member("Fed raises interest rates", "CNBC"),
		member("Federal Reserve raises rates", "Reuters"),
		member("Fed hikes rates again", "SomeBlog"),
	)

	s := ScoreCluster(c, testHotnessConfig())

	assert.InDelta(t, 0.3, s.Breakdown.Size, 1e-12)
	assert.InDelta(t, 1.0, s.Breakdown.Authority, 1e-12, "Reuters carries the max weight")
	assert.Equal(t, 0.0, s.Breakdown.Surprise, "no surprise keyword in any title")
	assert.InDelta(t, 0.6, s.Breakdown.Diversity, 1e-12)

	// 0.3*0.4 + 1.0*0.3 + 0*0.2 + 0.6*0.1
	assert.InDelta(t, 0.48, s.Score, 1e-12)
	assert.Equal(t, "Fed raises interest rates", s.RepresentativeTitle)
}

func TestScoreClusterSingleton(t *testing.T) {
	c := clusterOf(3, member("Quiet day for bond markets", "Yahoo"))

	s := ScoreCluster(c, testHotnessConfig())

	assert.InDelta(t, 0.1, s.Breakdown.Size, 1e-12)
	assert.InDelta(t, 0.7, s.Breakdown.Authority, 1e-12)
	assert.Equal(t, 0.0, s.Breakdown.Surprise)
	assert.InDelta(t, 0.2, s.Breakdown.Diversity, 1e-12)
	assert.InDelta(t, 0.1*0.4+0.7*0.3+0.2*0.1, s.Score, 1e-12)
	assert.Equal(t, 3, s.ClusterID)
}

func TestScoreClusterSurpriseKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  float64
	}{
		{title: "Markets RALLY on earnings", want: 1},       // case-insensitive
		{title: "Oil prices at record highs", want: 1},      // substring "record", "high"
		{title: "Dealmakers circle the company", want: 1},   // substring "deal"
		{title: "Quiet session for equities", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			s := ScoreCluster(clusterOf(0, member(tt.title, "CNN")), testHotnessConfig())
			assert.Equal(t, tt.want, s.Breakdown.Surprise)
		})
	}
}

func TestScoreClusterUnknownSourceDefault(t *testing.T) {
	s := ScoreCluster(clusterOf(0, member("Some story", "Unheard Of Weekly")), testHotnessConfig())
	assert.InDelta(t, 0.5, s.Breakdown.Authority, 1e-12)
}

func TestScoreClusterComponentsClamped(t *testing.T) {
	// 25 members from 7 distinct sources: size and diversity both cap at 1.
	var members []Member
	for i := 0; i < 25; i++ {
		members = append(members, member(
			fmt.Sprintf("Markets crash worldwide %d", i),
			fmt.Sprintf("Source%d", i%7),
		))
	}

	cfg := testHotnessConfig()
	cfg.SourceWeights = map[string]float64{"Source0": 1.5} // misconfigured weight
	s := ScoreCluster(clusterOf(0, members...), cfg)

	assert.Equal(t, 1.0, s.Breakdown.Size)
	assert.Equal(t, 1.0, s.Breakdown.Diversity)
	assert.Equal(t, 1.0, s.Breakdown.Authority, "authority clamps to 1")
	assert.LessOrEqual(t, s.Score, 1.0)
}

func TestScoreClusterBounded(t *testing.T) {
	cfg := testHotnessConfig()
	clusters := []Cluster{
		clusterOf(0, member("a crash and a surge and a record", "Reuters")),
		clusterOf(1, member("nothing in particular", "nobody")),
		clusterOf(2),
	}

	for _, c := range clusters {
		s := ScoreCluster(c, cfg)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}
}

func TestComponentWeightsSum(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultComponentWeights().Sum(), 1e-12)
}
