// services/similarity.go
package services

import (
	"math"
	"strings"
)

// Algorithm names a similarity scorer. Lexical algorithms operate on the raw
// strings; the embedding algorithm operates on vectors supplied by the
// embedding provider.
type Algorithm string

const (
	AlgorithmExact       Algorithm = "exact"
	AlgorithmContainment Algorithm = "containment"
	AlgorithmEdit        Algorithm = "edit_distance"
	AlgorithmEmbedding   Algorithm = "embedding"

	// AlgorithmLexical is the layered cascade (exact, containment, edit
	// distance) and the default when a submission names no algorithm.
	AlgorithmLexical Algorithm = "lexical"
)

// IsLexical reports whether the algorithm scores on a 0–100 string scale.
func (a Algorithm) IsLexical() bool {
	switch a {
	case AlgorithmExact, AlgorithmContainment, AlgorithmEdit, AlgorithmLexical:
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExactMatch scores 100 when the trimmed, case-folded strings are equal.
func ExactMatch(a, b string) (float64, bool) {
	if normalize(a) == normalize(b) {
		return 100, true
	}
	return 0, false
}

// Containment scores 80 when either normalized string contains the other.
func Containment(a, b string) (float64, bool) {
	s1, s2 := normalize(a), normalize(b)
	if s1 == "" || s2 == "" {
		return 0, false
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return 80, true
	}
	return 0, false
}

// EditDistance scores the Levenshtein similarity of the normalized strings
// on a 0–100 scale, rounded to two decimals. Distances count characters,
// not bytes, so accented prompts score the same as plain ones. Two empty
// strings score 100; one empty string scores 0.
func EditDistance(a, b string) float64 {
	s1, s2 := []rune(normalize(a)), []rune(normalize(b))
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 100
	}
	distance := levenshtein(s1, s2)
	similarity := float64(maxLen-distance) / float64(maxLen) * 100
	return math.Round(similarity*100) / 100
}

// CascadeScore is the layered lexical scorer used for guess submissions:
// exact match wins outright, then substring containment, then edit distance.
func CascadeScore(guess, prompt string) float64 {
	if score, ok := ExactMatch(guess, prompt); ok {
		return score
	}
	if score, ok := Containment(guess, prompt); ok {
		return score
	}
	return EditDistance(guess, prompt)
}

func levenshtein(s1, s2 []rune) int {
	prev := make([]int, len(s1)+1)
	curr := make([]int, len(s1)+1)
	for j := 0; j <= len(s1); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(s2); i++ {
		curr[0] = i
		for j := 1; j <= len(s1); j++ {
			if s2[i-1] == s1[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j-1], curr[j-1], prev[j]) + 1
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(s1)]
}

// roundScore rounds to two decimal places, the precision every score and
// accuracy value is reported with.
func roundScore(x float64) float64 {
	return math.Round(x*100) / 100
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// EmbeddingCosine returns the cosine similarity of two vectors in [-1, 1].
// Vectors of different lengths fail with ErrEmbeddingDimensionMismatch; a
// zero-norm vector has no direction and scores 0.
func EmbeddingCosine(vecA, vecB []float32) (float64, error) {
	if len(vecA) != len(vecB) {
		return 0, ErrEmbeddingDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range vecA {
		dot += float64(vecA[i]) * float64(vecB[i])
		normA += float64(vecA[i]) * float64(vecA[i])
		normB += float64(vecB[i]) * float64(vecB[i])
	}
	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (normA * normB), nil
}
