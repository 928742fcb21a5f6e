package pipeline

import "sort"

// Rank orders scores descending and truncates to topK. The sort is stable:
// equal scores keep their relative input order, which for pipeline output
// is cluster id ascending (earliest created first). When fewer than topK
// scores exist, all are returned. The input slice is not modified.
func Rank(scores []HotnessScore, topK int) []HotnessScore {
	out := make([]HotnessScore, len(scores))
	copy(out, scores)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
