package pipeline

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"
)

// VectorizeOptions configures the bag-of-terms model.
type VectorizeOptions struct {
	// MaxFeatures caps the vocabulary at the terms with the highest total
	// corpus frequency; ties break lexicographically so runs are
	// reproducible. 0 means unlimited.
	MaxFeatures int
	// StopWords are excluded from the vocabulary.
	StopWords []string
}

// Vectorization is the result of vectorizing one batch.
type Vectorization struct {
	// Features holds one L2-normalized TF-IDF row per document. Nil when
	// the batch is empty or the whole batch reduced to an empty vocabulary.
	Features *mat.Dense
	// Similarity is the n×n pairwise cosine similarity matrix. Nil only
	// for an empty batch.
	Similarity *mat.Dense
	// Vocabulary lists the retained terms in column order.
	Vocabulary []string
}

// Vectorize builds a TF-IDF weighting model over the batch of comparison
// keys and computes pairwise cosine similarity. The vocabulary is rebuilt
// from scratch for every batch.
//
// Degenerate documents (empty after normalization, or all stop words)
// become zero vectors: similarity 1 to themselves and to textually
// identical documents, 0 to everything else.
func Vectorize(batch []string, opts VectorizeOptions) *Vectorization {
	n := len(batch)
	if n == 0 {
		return &Vectorization{}
	}

	stop := make(map[string]struct{}, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	// Per-document term counts and corpus document frequency.
	counts := make([]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)
	for i, doc := range batch {
		counts[i] = make(map[string]int)
		for _, tok := range tokenize(doc, stop) {
			counts[i][tok]++
			total[tok]++
		}
		for tok := range counts[i] {
			df[tok]++
		}
	}

	vocab := buildVocabulary(total, opts.MaxFeatures)
	if len(vocab) == 0 {
		// Every document was degenerate; only exact text matches connect.
		return &Vectorization{Similarity: identitySimilarity(batch)}
	}

	index := make(map[string]int, len(vocab))
	for i, term := range vocab {
		index[term] = i
	}

	// Smoothed idf, sklearn-compatible: ln((1+n)/(1+df)) + 1.
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	features := mat.NewDense(n, len(vocab), nil)
	for i := 0; i < n; i++ {
		row := features.RawRowView(i)
		for tok, cnt := range counts[i] {
			if j, ok := index[tok]; ok {
				row[j] = float64(cnt) * idf[j]
			}
		}
		normalizeRow(row)
	}

	sim := mat.NewDense(n, n, nil)
	sim.Mul(features, features.T())
	fixupSimilarity(sim, batch)

	return &Vectorization{Features: features, Similarity: sim, Vocabulary: vocab}
}

// tokenize splits a comparison key into terms of at least two runes,
// excluding stop words. Keys are already lowercase.
func tokenize(doc string, stop map[string]struct{}) []string {
	words := strings.FieldsFunc(doc, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		if _, ok := stop[w]; ok {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// buildVocabulary keeps the maxFeatures most frequent terms, ties broken
// lexicographically, and returns them in lexicographic column order.
func buildVocabulary(total map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}

	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)
	return terms
}

func normalizeRow(row []float64) {
	var sum float64
	for _, v := range row {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for j := range row {
		row[j] /= norm
	}
}

// fixupSimilarity pins self- and identical-text similarity to exactly 1
// and clamps floating-point spill back into [0,1].
func fixupSimilarity(sim *mat.Dense, batch []string) {
	n := len(batch)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j || batch[i] == batch[j]:
				sim.Set(i, j, 1)
			case sim.At(i, j) > 1:
				sim.Set(i, j, 1)
			case sim.At(i, j) < 0:
				sim.Set(i, j, 0)
			}
		}
	}
}

func identitySimilarity(batch []string) *mat.Dense {
	n := len(batch)
	sim := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || batch[i] == batch[j] {
				sim.Set(i, j, 1)
			}
		}
	}
	return sim
}

// DistanceMatrix converts a similarity matrix into the clustering distance
// 1 − similarity, clamped at 0.
func DistanceMatrix(sim *mat.Dense) *mat.Dense {
	if sim == nil {
		return nil
	}
	n, _ := sim.Dims()
	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := 1 - sim.At(i, j)
			if d < 0 {
				d = 0
			}
			dist.Set(i, j, d)
		}
	}
	return dist
}
