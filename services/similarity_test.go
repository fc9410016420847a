package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatch(t *testing.T) {
	score, ok := ExactMatch("  A Futuristic City  ", "a futuristic city")
	require.True(t, ok)
	assert.Equal(t, 100.0, score)

	_, ok = ExactMatch("a futuristic city", "a futuristic village")
	assert.False(t, ok)
}

func TestContainment(t *testing.T) {
	score, ok := Containment("futuristic city", "A futuristic city at sunset")
	require.True(t, ok)
	assert.Equal(t, 80.0, score)

	// checked both directions
	score, ok = Containment("A futuristic city at sunset", "futuristic city")
	require.True(t, ok)
	assert.Equal(t, 80.0, score)

	_, ok = Containment("", "anything")
	assert.False(t, ok)
}

func TestEditDistanceIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "flying cars", "A Futuristic City At Sunset"} {
		assert.Equal(t, 100.0, EditDistance(s, s), "EditDistance(%q, %q)", s, s)
	}
}

func TestEditDistanceDegenerateCases(t *testing.T) {
	assert.Equal(t, 100.0, EditDistance("", ""))
	assert.Equal(t, 0.0, EditDistance("", "sunset"))
	assert.Equal(t, 0.0, EditDistance("sunset", ""))
}

func TestEditDistanceScore(t *testing.T) {
	// "kitten" -> "sitting": distance 3, maxLen 7 -> 57.14
	assert.Equal(t, 57.14, EditDistance("kitten", "sitting"))
	// single substitution in a 5-char string -> 80.00
	assert.Equal(t, 80.0, EditDistance("house", "mouse"))
}

func TestEditDistanceCountsCharactersNotBytes(t *testing.T) {
	// "café" is 4 characters; a byte-wise distance would see the two-byte
	// é as two edits over a 5-byte string and report 60 instead.
	assert.Equal(t, 75.0, EditDistance("café", "cafe"))
	// pure multibyte strings, one substitution over 2 characters
	assert.Equal(t, 50.0, EditDistance("日本", "日中"))
}

func TestCascadeMonotonicity(t *testing.T) {
	// When exact fires, containment and edit distance would also clear a
	// >= 70 threshold for the same pair.
	a, b := "Flying Cars", "flying cars"
	if _, ok := ExactMatch(a, b); ok {
		score, ok := Containment(a, b)
		require.True(t, ok)
		assert.GreaterOrEqual(t, score, 70.0)
		assert.GreaterOrEqual(t, EditDistance(a, b), 70.0)
	}
	assert.Equal(t, 100.0, CascadeScore(a, b))

	// containment layer
	assert.Equal(t, 80.0, CascadeScore("flying cars", "a city with flying cars"))

	// edit-distance layer
	assert.Equal(t, EditDistance("mouse", "house"), CascadeScore("mouse", "house"))
}

func TestEmbeddingCosine(t *testing.T) {
	v1 := []float32{1, 0, 0}
	v2 := []float32{0, 1, 0}

	score, err := EmbeddingCosine(v1, v1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	score, err = EmbeddingCosine(v1, v2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)

	opposite := []float32{-1, 0, 0}
	score, err = EmbeddingCosine(v1, opposite)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, score, 1e-9)
}

func TestEmbeddingCosineSymmetricAndBounded(t *testing.T) {
	v1 := []float32{0.3, -0.7, 0.2, 0.9}
	v2 := []float32{-0.1, 0.4, 0.8, -0.2}

	ab, err := EmbeddingCosine(v1, v2)
	require.NoError(t, err)
	ba, err := EmbeddingCosine(v2, v1)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.LessOrEqual(t, ab, 1.0)
	assert.GreaterOrEqual(t, ab, -1.0)
}

func TestEmbeddingCosineDimensionMismatch(t *testing.T) {
	_, err := EmbeddingCosine([]float32{1, 2}, []float32{1, 2, 3})
	assert.True(t, errors.Is(err, ErrEmbeddingDimensionMismatch))
}

func TestEmbeddingCosineZeroNorm(t *testing.T) {
	score, err := EmbeddingCosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}
