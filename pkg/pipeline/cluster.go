package pipeline

import "gonum.org/v1/gonum/mat"

// Noise is the DBSCAN label for items not reachable from any core point.
// It never survives into final clusters; see PromoteSingletons.
const Noise = -1

const unvisited = -2

// DBSCAN runs density-based clustering over a precomputed distance matrix.
// Two items are directly connected when their distance is at most eps; a
// cluster is a maximal connected group containing at least one core item
// with minSamples neighbors within eps (the item itself included).
//
// The assignment is deterministic for a fixed input order: seeds are tried
// in input order and clusters expand breadth-first in index order, so a
// border point reachable from two core clusters joins whichever cluster's
// core reached it first in input order.
func DBSCAN(dist *mat.Dense, eps float64, minSamples int) []int {
	if dist == nil {
		return nil
	}
	n, _ := dist.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	neighbors := func(i int) []int {
		var nb []int
		for j := 0; j < n; j++ {
			if dist.At(i, j) <= eps {
				nb = append(nb, j)
			}
		}
		return nb
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		seed := neighbors(i)
		if len(seed) < minSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = clusterID
		queue := seed
		for head := 0; head < len(queue); head++ {
			j := queue[head]
			if labels[j] == Noise {
				// Border point: reachable but not core.
				labels[j] = clusterID
				continue
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = clusterID

			nb := neighbors(j)
			if len(nb) >= minSamples {
				queue = append(queue, nb...)
			}
		}
		clusterID++
	}

	return labels
}

// PromoteSingletons relabels every noise item as its own fresh singleton
// cluster, in input order, so the result is a total partition with no
// Noise labels left.
func PromoteSingletons(labels []int) []int {
	next := 0
	for _, l := range labels {
		if l >= next {
			next = l + 1
		}
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		if l == Noise {
			out[i] = next
			next++
		} else {
			out[i] = l
		}
	}
	return out
}
