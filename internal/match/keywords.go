package match

import (
	"regexp"
	"strings"

	"github.com/MeKo-Tech/cardscan/internal/extract"
	"github.com/MeKo-Tech/cardscan/internal/fuzzy"
)

// KeywordType classifies where a search term came from. The type decides how
// heavily a hit counts toward a card's score.
type KeywordType string

const (
	KeywordTitle     KeywordType = "title"
	KeywordNumber    KeywordType = "number"
	KeywordFlavor    KeywordType = "flavor"
	KeywordCharacter KeywordType = "character"
	KeywordSetCode   KeywordType = "setcode"
	KeywordCardType  KeywordType = "cardtype"
	KeywordEffect    KeywordType = "effect"
	KeywordText      KeywordType = "text"
)

// keywordWeights ranks term provenance by how discriminating it is. A title
// hit is worth ten times a free-text hit.
var keywordWeights = map[KeywordType]float64{
	KeywordTitle:     50,
	KeywordNumber:    40,
	KeywordFlavor:    30,
	KeywordCharacter: 25,
	KeywordSetCode:   20,
	KeywordCardType:  18,
	KeywordEffect:    15,
	KeywordText:      5,
}

// Weight returns the score weight for a keyword type, 0 for unknown types.
func Weight(t KeywordType) float64 {
	return keywordWeights[t]
}

// Keyword is a weighted search term derived from OCR output.
type Keyword struct {
	Text   string      `json:"text"`
	Type   KeywordType `json:"type"`
	Weight float64     `json:"weight"`
}

var (
	quotedPattern = regexp.MustCompile(`"([^"\n]{4,80})"|“([^”\n]{4,80})”`)
	// attribution dashes introduce a character name: — Kai, Stormcaller
	characterPattern = regexp.MustCompile(`[—–~-]\s*([A-Z][\p{L} .,'\-]{2,40})\s*$`)
)

// effectVocabulary holds rules-text verbs that narrow a match when the title
// was misread. Matched case-insensitively as whole words.
var effectVocabulary = []string{
	"draw", "discard", "destroy", "summon", "attack", "defend",
	"heal", "shield", "counter", "search", "exhaust", "channel",
}

// ExtractKeywords converts an OCR result into weighted search terms. The
// structured fields contribute the strong keywords; the remaining text lines
// contribute weak free-text terms. Duplicate (type, term) pairs are dropped.
func ExtractKeywords(text string, fields extract.Fields) []Keyword {
	var kws []Keyword
	seen := make(map[string]struct{})

	add := func(t KeywordType, term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		key := string(t) + "\x00" + fuzzy.Normalize(term)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		kws = append(kws, Keyword{Text: term, Type: t, Weight: Weight(t)})
	}

	add(KeywordTitle, fields.Title)
	add(KeywordNumber, fields.Number)
	add(KeywordSetCode, fields.SetCode)
	add(KeywordCardType, fields.CardType)

	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		quote := m[1]
		if quote == "" {
			quote = m[2]
		}
		add(KeywordFlavor, quote)
	}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if m := characterPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			add(KeywordCharacter, m[1])
		}
	}

	lower := strings.ToLower(text)
	for _, verb := range effectVocabulary {
		if containsWord(lower, verb) {
			add(KeywordEffect, verb)
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 4 || len(line) > 60 {
			continue
		}
		if line == fields.Title || strings.Contains(line, "/") {
			continue
		}
		add(KeywordText, line)
	}

	return kws
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
