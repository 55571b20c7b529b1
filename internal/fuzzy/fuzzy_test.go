package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "shadow wolf", Normalize("  Shadow   Wolf!! "))
	assert.Equal(t, "pokemon", Normalize("Pokémon"))
	assert.Equal(t, "ogn170", Normalize("OGN|-170"))
	assert.Equal(t, "", Normalize("~!@#$%"))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("wolf", "wolf"))
	assert.Equal(t, 4, Levenshtein("", "wolf"))
	assert.Equal(t, 4, Levenshtein("wolf", ""))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 1, Levenshtein("shadow", "shadow"[:5]))
}

func TestScoreExactAfterNormalization(t *testing.T) {
	score := Score("Shadow Wolf", "shadow  wolf")
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreBothEmpty(t *testing.T) {
	assert.InDelta(t, 1.0, Score("", ""), 1e-9)
	// strings that normalize to empty count as empty
	assert.InDelta(t, 1.0, Score("!!!", "???"), 1e-9)
}

func TestScoreOneEmpty(t *testing.T) {
	assert.InDelta(t, 0.0, Score("", "wolf"), 1e-9)
	assert.InDelta(t, 0.0, Score("wolf", ""), 1e-9)
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Shadow Wolf", "Shadow Wolt"},
		{"Flame Drake", "Frame Drake"},
		{"OGN-170", "OGN-17O"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Score(p[0], p[1]), Score(p[1], p[0]), 1e-9)
	}
}

func TestScoreDissimilar(t *testing.T) {
	score := Score("Shadow Wolf", "Crystal Golem")
	assert.Less(t, score, 0.4)
}

func TestScoreSingleEdit(t *testing.T) {
	// one substitution over 11 runes
	score := Score("shadow wolf", "shadow wolt")
	assert.InDelta(t, 1.0-1.0/11.0, score, 1e-9)
}

func TestMatchThreshold(t *testing.T) {
	score, ok := Match("Shadow Wolf", "shadow wolf", 0.7)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)

	_, ok = Match("Shadow Wolf", "Crystal Golem", 0.7)
	assert.False(t, ok)
}

func TestScoreRange(t *testing.T) {
	inputs := []string{"", "a", "Shadow Wolf", "170/298", "zzzzzzzzzz"}
	for _, a := range inputs {
		for _, b := range inputs {
			s := Score(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}
