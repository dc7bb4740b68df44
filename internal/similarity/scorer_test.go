package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "broken air conditioner unit 123", Normalize("Broken Air-Conditioner!!! Unit #123"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("!!! ---"))
	assert.Equal(t, "a b", Normalize("  A    b  "))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("broken fan", "Broken Fan!"))
	assert.Equal(t, 0.0, Jaccard("", "broken fan"))
	assert.Equal(t, 0.0, Jaccard("broken fan", ""))
	assert.Equal(t, 0.0, Jaccard("", ""))

	// {broken, fan} vs {broken, light}: 1 shared, 3 total
	assert.InDelta(t, 1.0/3.0, Jaccard("broken fan", "broken light"), 1e-9)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 0, Levenshtein("same", "same"))
	assert.Equal(t, 0, Levenshtein("", ""))
	assert.Equal(t, 5, Levenshtein("", "hello"))
	assert.Equal(t, 5, Levenshtein("hello", ""))
	assert.Equal(t, 1, Levenshtein("cat", "cut"))
}

func TestNGrams(t *testing.T) {
	grams := NGrams("test", 2)
	require.Len(t, grams, 3)
	for _, g := range []string{"te", "es", "st"} {
		assert.Contains(t, grams, g)
	}

	// repeated substrings collapse under set semantics
	assert.Len(t, NGrams("aaaa", 2), 1)
	assert.Empty(t, NGrams("", 2))
	assert.Empty(t, NGrams("ab", 0))
	assert.Empty(t, NGrams("ab", 3))
}

func TestCombinedReflexive(t *testing.T) {
	for _, s := range []string{"", "broken fan", "Broken Air-Conditioner!!! Unit #123", "x"} {
		assert.Equal(t, 1.0, Combined(s, s), "Combined(%q, %q)", s, s)
	}
}

func TestCombinedSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"broken fan in block 57", "fan broken block 57"},
		{"water leak", "electrical socket burned"},
		{"", "anything"},
	}
	for _, p := range pairs {
		assert.Equal(t, Combined(p[0], p[1]), Combined(p[1], p[0]))
	}
}

func TestCombinedBounds(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"", "x"},
		{"broken projector", "Broken Projector"},
		{"totally different", "words entirely other"},
	}
	for _, c := range cases {
		score := Combined(c[0], c[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}

	// identical after normalization
	assert.Equal(t, 1.0, Combined("Broken   FAN!!", "broken fan"))
	// one empty side
	assert.Equal(t, 0.0, Combined("", "broken fan"))
}

func TestCombinedOrdersByCloseness(t *testing.T) {
	base := "broken ceiling fan in room 12"
	near := "broken ceiling fan room 12"
	far := "projector lamp flickering"
	assert.Greater(t, Combined(base, near), Combined(base, far))
}
