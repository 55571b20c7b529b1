// Package match ranks catalog cards against OCR output. Two strategies run
// side by side: weighted keyword scoring over all card fields, and a direct
// number/name lookup. Their agreement drives the MatchedBy verdict.
package match

import (
	"sort"
	"strings"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/extract"
	"github.com/MeKo-Tech/cardscan/internal/fuzzy"
)

// Config holds matching thresholds.
type Config struct {
	// MinScore is the lowest keyword score kept in the ranking.
	MinScore float64 `json:"minScore"`
	// MaxResults caps the candidate list.
	MaxResults int `json:"maxResults"`
	// FieldThreshold is the per-field fuzzy floor during keyword scoring.
	FieldThreshold float64 `json:"fieldThreshold"`
	// NumberThreshold is the fuzzy floor for collector number lookup.
	NumberThreshold float64 `json:"numberThreshold"`
	// NameThreshold is the fuzzy floor for name lookup.
	NameThreshold float64 `json:"nameThreshold"`
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:        15,
		MaxResults:      5,
		FieldThreshold:  0.6,
		NumberThreshold: 0.7,
		NameThreshold:   0.7,
	}
}

// MatchedBy records which lookup strategies agreed on a candidate.
type MatchedBy string

const (
	MatchedByNumber   MatchedBy = "number"
	MatchedByName     MatchedBy = "name"
	MatchedByBoth     MatchedBy = "both"
	MatchedByKeywords MatchedBy = "keywords"
)

// Contribution explains one keyword/field pair that added to a score.
type Contribution struct {
	Keyword string      `json:"keyword"`
	Type    KeywordType `json:"type"`
	Field   string      `json:"field"`
	Score   float64     `json:"score"`
}

// Candidate is one ranked catalog card.
type Candidate struct {
	Card catalog.Card `json:"card"`
	// Score is the raw keyword score and drives the ranking.
	Score float64 `json:"score"`
	// MatchPercent is Score clamped to [0,100] for display.
	MatchPercent float64 `json:"matchPercent"`
	// Confidence in [0,1] from the direct number/name lookup.
	Confidence    float64        `json:"confidence"`
	MatchedBy     MatchedBy      `json:"matchedBy"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

// scoredField pairs a card field with its weight during keyword scoring.
// Order matters: earlier fields win ties via the strictly descending weights.
type scoredField struct {
	name   string
	weight float64
	value  func(*catalog.Card) string
}

var scoredFields = []scoredField{
	{"name", 1.0, func(c *catalog.Card) string { return c.Name }},
	{"flavor", 0.8, func(c *catalog.Card) string { return c.Flavor }},
	{"effect", 0.7, func(c *catalog.Card) string { return c.Effect }},
	{"type", 0.6, func(c *catalog.Card) string { return c.Type }},
	{"set_name", 0.5, func(c *catalog.Card) string { return c.SetName }},
	{"id", 0.4, func(c *catalog.Card) string { return c.ID }},
}

// hybridScoreWeight converts a direct-lookup confidence into a keyword-scale
// score for candidates the keyword pass missed entirely.
const hybridScoreWeight = 40.0

// Matcher ranks cards using a fixed Config. Stateless and safe for
// concurrent use.
type Matcher struct {
	cfg Config
}

// New creates a Matcher, falling back to defaults for zero thresholds.
func New(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.MinScore <= 0 {
		cfg.MinScore = def.MinScore
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.FieldThreshold <= 0 {
		cfg.FieldThreshold = def.FieldThreshold
	}
	if cfg.NumberThreshold <= 0 {
		cfg.NumberThreshold = def.NumberThreshold
	}
	if cfg.NameThreshold <= 0 {
		cfg.NameThreshold = def.NameThreshold
	}
	return &Matcher{cfg: cfg}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Rank is the full matching operation: keyword scoring over every card,
// merged with the direct number/name lookup. Candidates are sorted by score
// descending (card ID breaks ties) and capped at MaxResults. An empty
// catalog or empty input yields an empty result.
func (m *Matcher) Rank(cards []catalog.Card, text string, fields extract.Fields) []Candidate {
	keywords := ExtractKeywords(text, fields)

	var out []Candidate
	for i := range cards {
		score, contribs := m.scoreCard(&cards[i], keywords)
		if score < m.cfg.MinScore {
			continue
		}
		out = append(out, Candidate{
			Card:          cards[i],
			Score:         score,
			MatchPercent:  clampPercent(score),
			Confidence:    clampPercent(score) / 100,
			MatchedBy:     MatchedByKeywords,
			Contributions: contribs,
		})
	}

	// fold in the direct lookup verdicts
	direct := m.Hybrid(cards, fields)
	byID := make(map[string]*Candidate, len(direct))
	for i := range direct {
		byID[direct[i].Card.ID] = &direct[i]
	}
	seen := make(map[string]struct{}, len(out))
	for i := range out {
		seen[out[i].Card.ID] = struct{}{}
		if d, ok := byID[out[i].Card.ID]; ok {
			out[i].MatchedBy = d.MatchedBy
			if d.Confidence > out[i].Confidence {
				out[i].Confidence = d.Confidence
			}
		}
	}
	for i := range direct {
		if _, dup := seen[direct[i].Card.ID]; dup {
			continue
		}
		d := direct[i]
		d.Score = d.Confidence * hybridScoreWeight
		d.MatchPercent = clampPercent(d.Score)
		if d.Score >= m.cfg.MinScore {
			out = append(out, d)
		}
	}

	sortCandidates(out)
	if len(out) > m.cfg.MaxResults {
		out = out[:m.cfg.MaxResults]
	}
	return out
}

// scoreCard accumulates the best field hit for every keyword.
func (m *Matcher) scoreCard(card *catalog.Card, keywords []Keyword) (float64, []Contribution) {
	total := 0.0
	var contribs []Contribution

	for _, kw := range keywords {
		bestScore := 0.0
		bestField := ""
		for _, f := range scoredFields {
			value := f.value(card)
			if value == "" {
				continue
			}
			s := m.fieldScore(kw.Text, value) * f.weight
			if s > bestScore {
				bestScore = s
				bestField = f.name
			}
		}
		if bestScore <= 0 {
			continue
		}
		weighted := bestScore * kw.Weight
		total += weighted
		contribs = append(contribs, Contribution{
			Keyword: kw.Text,
			Type:    kw.Type,
			Field:   bestField,
			Score:   weighted,
		})
	}
	return total, contribs
}

// fieldScore rates one keyword against one field value: exact 1.0,
// substring 0.8, fuzzy above the floor at 60% of its similarity.
func (m *Matcher) fieldScore(keyword, value string) float64 {
	nk := fuzzy.Normalize(keyword)
	nv := fuzzy.Normalize(value)
	if nk == "" || nv == "" {
		return 0
	}
	if nk == nv {
		return 1.0
	}
	if strings.Contains(nv, nk) || strings.Contains(nk, nv) {
		return 0.8
	}
	if s := fuzzy.Score(nk, nv); s >= m.cfg.FieldThreshold {
		return s * 0.6
	}
	return 0
}

// MatchByNumber finds cards whose collector number matches exactly after
// normalization, falling back to fuzzy matching above NumberThreshold.
func (m *Matcher) MatchByNumber(cards []catalog.Card, number string) []Candidate {
	norm := NormalizeNumber(number)
	if norm == "" {
		return nil
	}

	var out []Candidate
	for i := range cards {
		if NormalizeNumber(cards[i].Number) == norm || NormalizeNumber(cards[i].ID) == norm {
			out = append(out, Candidate{Card: cards[i], Confidence: 1.0, MatchedBy: MatchedByNumber})
		}
	}
	if len(out) > 0 {
		return out
	}

	for i := range cards {
		s := fuzzy.Score(norm, NormalizeNumber(cards[i].Number))
		if s >= m.cfg.NumberThreshold {
			out = append(out, Candidate{Card: cards[i], Confidence: s, MatchedBy: MatchedByNumber})
		}
	}
	sortByConfidence(out)
	return out
}

// MatchByName finds cards by name: exact normalized match scores 1.0,
// containment 0.8, otherwise fuzzy similarity above NameThreshold.
func (m *Matcher) MatchByName(cards []catalog.Card, name string) []Candidate {
	nn := fuzzy.Normalize(name)
	if nn == "" {
		return nil
	}

	var out []Candidate
	for i := range cards {
		cn := fuzzy.Normalize(cards[i].Name)
		if cn == "" {
			continue
		}
		var conf float64
		switch {
		case cn == nn:
			conf = 1.0
		case strings.Contains(cn, nn) || strings.Contains(nn, cn):
			conf = 0.8
		default:
			if s := fuzzy.Score(nn, cn); s >= m.cfg.NameThreshold {
				conf = s
			}
		}
		if conf > 0 {
			out = append(out, Candidate{Card: cards[i], Confidence: conf, MatchedBy: MatchedByName})
		}
	}
	sortByConfidence(out)
	if len(out) > m.cfg.MaxResults {
		out = out[:m.cfg.MaxResults]
	}
	return out
}

// Hybrid merges the number and name lookups by card ID. A card found by both
// is upgraded to MatchedByBoth with the higher confidence.
func (m *Matcher) Hybrid(cards []catalog.Card, fields extract.Fields) []Candidate {
	merged := make(map[string]Candidate)

	if fields.Number != "" {
		for _, c := range m.MatchByNumber(cards, fields.Number) {
			merged[c.Card.ID] = c
		}
	}
	if fields.Title != "" {
		for _, c := range m.MatchByName(cards, fields.Title) {
			if prev, ok := merged[c.Card.ID]; ok {
				if c.Confidence > prev.Confidence {
					prev.Confidence = c.Confidence
				}
				prev.MatchedBy = MatchedByBoth
				merged[c.Card.ID] = prev
			} else {
				merged[c.Card.ID] = c
			}
		}
	}

	out := make([]Candidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sortByConfidence(out)
	if len(out) > m.cfg.MaxResults {
		out = out[:m.cfg.MaxResults]
	}
	return out
}

// NormalizeNumber uppercases and strips whitespace plus anything outside
// A-Z, 0-9 and dashes, so "ogn 170" and "OGN-170" compare equal.
func NormalizeNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clampPercent(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return cs[i].Card.ID < cs[j].Card.ID
	})
}

func sortByConfidence(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		return cs[i].Card.ID < cs[j].Card.ID
	})
}
