// Package similarity provides pure numeric scoring of embedding vectors.
// It performs no I/O; callers map ranked indexes back to their own records.
package similarity

import (
	"math"
	"sort"
)

// Match is a candidate vector's position in the input slice with its score.
type Match struct {
	Index int
	Score float64
}

// Cosine returns the cosine similarity dot(a,b) / (|a|*|b|).
// Vectors of different dimensionality, and vectors with zero magnitude,
// score exactly 0. It never returns an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, aSq, bSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aSq += float64(a[i]) * float64(a[i])
		bSq += float64(b[i]) * float64(b[i])
	}
	if aSq == 0 || bSq == 0 {
		return 0
	}
	return dot / (math.Sqrt(aSq) * math.Sqrt(bSq))
}

// TopK scores every candidate against the query vector and returns at most k
// matches sorted descending by score. Candidates whose dimensionality differs
// from the query are skipped entirely. Equal scores keep their input order
// (stable sort), and scores are rounded to 6 decimal places for stable display.
func TopK(query []float32, candidates [][]float32, k int) []Match {
	if k <= 0 || len(query) == 0 {
		return nil
	}

	var matches []Match
	for i, c := range candidates {
		if len(c) != len(query) {
			continue
		}
		matches = append(matches, Match{Index: i, Score: round6(Cosine(query, c))})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
