package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(id int, score float64) HotnessScore {
	return HotnessScore{ClusterID: id, Score: score}
}

func TestRankDescending(t *testing.T) {
	in := []HotnessScore{scored(0, 0.2), scored(1, 0.9), scored(2, 0.5)}

	out := Rank(in, 10)

	assert.Equal(t, []int{1, 2, 0}, ids(out))
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestRankStableTies(t *testing.T) {
	// Equal scores keep cluster-id order, which is input order.
	in := []HotnessScore{scored(0, 0.5), scored(1, 0.5), scored(2, 0.7), scored(3, 0.5)}

	out := Rank(in, 10)

	assert.Equal(t, []int{2, 0, 1, 3}, ids(out))
}

func TestRankTruncates(t *testing.T) {
	in := []HotnessScore{scored(0, 0.1), scored(1, 0.4), scored(2, 0.3), scored(3, 0.2)}

	out := Rank(in, 2)

	assert.Equal(t, []int{1, 2}, ids(out))
}

func TestRankFewerThanTopK(t *testing.T) {
	in := []HotnessScore{scored(0, 0.3), scored(1, 0.1)}

	out := Rank(in, 10)

	assert.Len(t, out, 2)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, 10))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []HotnessScore{scored(0, 0.1), scored(1, 0.9)}

	Rank(in, 10)

	assert.Equal(t, []int{0, 1}, ids(in))
}

func ids(scores []HotnessScore) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		out[i] = s.ClusterID
	}
	return out
}
