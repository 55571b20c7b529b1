package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/extract"
)

func testCatalog() []catalog.Card {
	return []catalog.Card{
		{ID: "OGN-170", Name: "Shadow Wolf", Number: "170", SetName: "Origins", Type: "Unit"},
		{ID: "OGN-171", Name: "Shadow Wolf Alpha", Number: "171", SetName: "Origins", Type: "Unit"},
		{ID: "OGN-002", Name: "Flame Drake", Number: "2", SetName: "Origins", Type: "Unit"},
		{ID: "OGS-170", Name: "Crystal Golem", Number: "170", SetName: "Stormlight", Type: "Unit"},
		{ID: "OGN-055", Name: "Healing Light", Number: "55", SetName: "Origins", Type: "Spell",
			Effect: "Heal 3 damage from target unit"},
	}
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, "OGN-170", NormalizeNumber("ogn - 170"))
	assert.Equal(t, "170", NormalizeNumber(" 1 7 0 "))
	assert.Equal(t, "OGN-170", NormalizeNumber("OGN-170!"))
	assert.Empty(t, NormalizeNumber("  "))
}

func TestMatchByNumberExact(t *testing.T) {
	m := New(DefaultConfig())
	out := m.MatchByNumber(testCatalog(), "170")
	require.Len(t, out, 2) // both sets carry a #170
	for _, c := range out {
		assert.Equal(t, "170", c.Card.Number)
		assert.InDelta(t, 1.0, c.Confidence, 1e-9)
		assert.Equal(t, MatchedByNumber, c.MatchedBy)
	}
}

func TestMatchByNumberByID(t *testing.T) {
	m := New(DefaultConfig())
	out := m.MatchByNumber(testCatalog(), "OGN-170")
	require.Len(t, out, 1)
	assert.Equal(t, "OGN-170", out[0].Card.ID)
}

func TestMatchByNumberEmpty(t *testing.T) {
	m := New(DefaultConfig())
	assert.Empty(t, m.MatchByNumber(testCatalog(), ""))
	assert.Empty(t, m.MatchByNumber(nil, "170"))
}

func TestMatchByNameExact(t *testing.T) {
	m := New(DefaultConfig())
	out := m.MatchByName(testCatalog(), "shadow wolf")
	require.NotEmpty(t, out)
	assert.Equal(t, "OGN-170", out[0].Card.ID)
	assert.InDelta(t, 1.0, out[0].Confidence, 1e-9)
}

func TestMatchByNameContainment(t *testing.T) {
	m := New(DefaultConfig())
	out := m.MatchByName(testCatalog(), "Shadow Wolf Alpha")
	require.NotEmpty(t, out)
	// exact beats the containment hit on "Shadow Wolf"
	assert.Equal(t, "OGN-171", out[0].Card.ID)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.8, out[1].Confidence, 1e-9)
}

func TestMatchByNameFuzzy(t *testing.T) {
	m := New(DefaultConfig())
	// OCR misread: one substitution
	out := m.MatchByName(testCatalog(), "Flame Droke")
	require.NotEmpty(t, out)
	assert.Equal(t, "OGN-002", out[0].Card.ID)
	assert.Greater(t, out[0].Confidence, 0.7)
	assert.Less(t, out[0].Confidence, 1.0)
}

func TestMatchByNameBelowThreshold(t *testing.T) {
	m := New(DefaultConfig())
	assert.Empty(t, m.MatchByName(testCatalog(), "Qqqqq Zzzzz"))
}

func TestHybridBoth(t *testing.T) {
	m := New(DefaultConfig())
	out := m.Hybrid(testCatalog(), extract.Fields{Number: "170", Title: "Shadow Wolf"})
	require.NotEmpty(t, out)
	assert.Equal(t, "OGN-170", out[0].Card.ID)
	assert.Equal(t, MatchedByBoth, out[0].MatchedBy)
	assert.InDelta(t, 1.0, out[0].Confidence, 1e-9)
}

func TestHybridNumberOnly(t *testing.T) {
	m := New(DefaultConfig())
	out := m.Hybrid(testCatalog(), extract.Fields{Number: "2"})
	require.Len(t, out, 1)
	assert.Equal(t, MatchedByNumber, out[0].MatchedBy)
}

func TestRankEndToEnd(t *testing.T) {
	m := New(DefaultConfig())
	fields := extract.Fields{Title: "Shadow Wolf", Number: "170", SetTotal: "298"}
	out := m.Rank(testCatalog(), "Shadow Wolf\n170/298\nOGN", fields)

	require.NotEmpty(t, out)
	best := out[0]
	assert.Equal(t, "OGN-170", best.Card.ID)
	assert.Equal(t, MatchedByBoth, best.MatchedBy)
	assert.Greater(t, best.MatchPercent, 50.0)
	assert.NotEmpty(t, best.Contributions)
}

func TestRankFiltersBelowMinScore(t *testing.T) {
	m := New(DefaultConfig())
	out := m.Rank(testCatalog(), "zzz qqq", extract.Fields{})
	assert.Empty(t, out)
}

func TestRankEmptyCatalog(t *testing.T) {
	m := New(DefaultConfig())
	out := m.Rank(nil, "Shadow Wolf", extract.Fields{Title: "Shadow Wolf"})
	assert.Empty(t, out)
}

func TestRankCapsResults(t *testing.T) {
	var cards []catalog.Card
	for i := 0; i < 20; i++ {
		cards = append(cards, catalog.Card{
			ID:     fmt.Sprintf("OGN-%03d", i),
			Name:   "Shadow Wolf",
			Number: fmt.Sprintf("%d", i),
		})
	}
	m := New(DefaultConfig())
	out := m.Rank(cards, "Shadow Wolf", extract.Fields{Title: "Shadow Wolf"})
	assert.Len(t, out, DefaultConfig().MaxResults)
}

func TestRankUniqueIDs(t *testing.T) {
	m := New(DefaultConfig())
	fields := extract.Fields{Title: "Shadow Wolf", Number: "170"}
	out := m.Rank(testCatalog(), "Shadow Wolf\n170/298", fields)
	seen := make(map[string]bool)
	for _, c := range out {
		assert.False(t, seen[c.Card.ID], "duplicate candidate %s", c.Card.ID)
		seen[c.Card.ID] = true
	}
}

func TestRankSortedDescending(t *testing.T) {
	m := New(DefaultConfig())
	fields := extract.Fields{Title: "Shadow Wolf", Number: "170"}
	out := m.Rank(testCatalog(), "Shadow Wolf\n170/298", fields)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestRankMatchPercentClamped(t *testing.T) {
	m := New(DefaultConfig())
	fields := extract.Fields{Title: "Shadow Wolf", Number: "170", SetCode: "OGN", CardType: "Unit"}
	text := "Shadow Wolf\nUnit\n170/298\nOGN-170\n\"The night hunts with silent paws.\"\ndraw a card"
	out := m.Rank(testCatalog(), text, fields)
	for _, c := range out {
		assert.GreaterOrEqual(t, c.MatchPercent, 0.0)
		assert.LessOrEqual(t, c.MatchPercent, 100.0)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(Config{})
	assert.Equal(t, DefaultConfig(), m.Config())
}

func TestScoreCardEffectField(t *testing.T) {
	m := New(DefaultConfig())
	cards := testCatalog()
	out := m.Rank(cards, "heal 3 damage from target unit", extract.Fields{})
	require.NotEmpty(t, out)
	assert.Equal(t, "OGN-055", out[0].Card.ID)
}
