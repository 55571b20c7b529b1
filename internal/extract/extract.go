// Package extract pulls structured card fields out of raw OCR text. The text
// is noisy and unordered, so extraction is regex and heuristic driven and
// never fails; an unrecognized field is simply left empty.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Fields holds everything recognized in a single OCR pass. Empty string
// means the field was not found.
type Fields struct {
	Number   string `json:"number,omitempty"`
	SetTotal string `json:"setTotal,omitempty"`
	Title    string `json:"title,omitempty"`
	SetCode  string `json:"setCode,omitempty"`
	CardType string `json:"cardType,omitempty"`
}

// Number patterns, tried in order. The first match wins.
var (
	fractionPattern = regexp.MustCompile(`(\d{1,3})\s*/\s*(\d{1,3})`)
	prefixPattern   = regexp.MustCompile(`[A-Z]{2,3}[-\s]?(\d{1,3})`)
	hashPattern     = regexp.MustCompile(`#\s*(\d{1,3})`)
	barePattern     = regexp.MustCompile(`\b(\d{1,3})\b`)

	setCodePattern  = regexp.MustCompile(`\b([A-Z]{2,3})[-\s]?\d{1,3}\b`)
	numberLikeLine  = regexp.MustCompile(`^\d{1,3}\s*/\s*\d{1,3}$|^#?\d{1,4}$`)
	titleCleanup    = regexp.MustCompile(`[^\p{L}\p{N}\s'\-]`)
	multiWhitespace = regexp.MustCompile(`\s+`)
)

// cardTypes is the fixed vocabulary of type lines seen on supported games.
var cardTypes = []string{
	"Champion", "Creature", "Battlefield", "Trainer", "Energy",
	"Spell", "Unit", "Gear", "Rune", "Legend", "Action", "Item", "Token",
}

// titleDenyList holds words that appear alone on cards but are never names.
var titleDenyList = map[string]struct{}{}

func init() {
	for _, t := range cardTypes {
		titleDenyList[strings.ToLower(t)] = struct{}{}
	}
	for _, w := range []string{"common", "uncommon", "rare", "epic", "legendary", "promo", "basic", "stage"} {
		titleDenyList[w] = struct{}{}
	}
}

// FromText runs all field extractors over a single OCR result.
func FromText(text string) Fields {
	number, total := CardNumber(text)
	return Fields{
		Number:   number,
		SetTotal: total,
		Title:    CardTitle(text),
		SetCode:  SetCode(text),
		CardType: CardType(text),
	}
}

// CardNumber finds the collector number in text. For fraction forms like
// "170/298" it also returns the set total. Leading zeros are stripped, so
// "#042" yields "42". Returns empty strings when nothing matches.
func CardNumber(text string) (number, setTotal string) {
	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		return stripLeadingZeros(m[1]), stripLeadingZeros(m[2])
	}
	if m := prefixPattern.FindStringSubmatch(text); m != nil {
		return stripLeadingZeros(m[1]), ""
	}
	if m := hashPattern.FindStringSubmatch(text); m != nil {
		return stripLeadingZeros(m[1]), ""
	}
	if m := barePattern.FindStringSubmatch(text); m != nil {
		return stripLeadingZeros(m[1]), ""
	}
	return "", ""
}

// CardTitle picks the most name-like line of text. Lines that are pure
// numbers, collector fractions, set codes, or deny-listed words are skipped;
// among the rest the longest line with a leading capital and a plausible
// word count scores highest.
func CardTitle(text string) string {
	best := ""
	bestScore := 0
	for _, line := range strings.Split(text, "\n") {
		candidate, score := scoreTitleLine(line)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

func scoreTitleLine(line string) (string, int) {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 50 {
		return "", 0
	}
	if numberLikeLine.MatchString(line) || (setCodePattern.MatchString(line) && len(line) <= 8) {
		return "", 0
	}

	clean := titleCleanup.ReplaceAllString(line, "")
	clean = strings.TrimSpace(multiWhitespace.ReplaceAllString(clean, " "))
	if len(clean) <= 3 {
		return "", 0
	}
	if _, denied := titleDenyList[strings.ToLower(clean)]; denied {
		return "", 0
	}
	if !mostlyLetters(clean) {
		return "", 0
	}

	score := len(clean)
	if score > 30 {
		score = 30
	}
	runes := []rune(clean)
	if unicode.IsUpper(runes[0]) {
		score += 10
	}
	if words := len(strings.Fields(clean)); words >= 2 && words <= 6 {
		score += 8
	}
	return clean, score
}

// SetCode extracts a 2-3 letter set prefix such as "OGN" from forms like
// "OGN-170" or "OGN 170".
func SetCode(text string) string {
	if m := setCodePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// CardType finds a known card type word in the text, preferring lines that
// contain nothing else.
func CardType(text string) string {
	lower := strings.ToLower(text)
	for _, line := range strings.Split(lower, "\n") {
		line = strings.TrimSpace(line)
		for _, ct := range cardTypes {
			if line == strings.ToLower(ct) {
				return ct
			}
		}
	}
	for _, ct := range cardTypes {
		if strings.Contains(lower, strings.ToLower(ct)) {
			return ct
		}
	}
	return ""
}

// mostlyLetters reports whether more than half the non-space runes are letters.
// OCR garbage lines are digit and symbol heavy.
func mostlyLetters(s string) bool {
	letters, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return total > 0 && float64(letters)/float64(total) > 0.5
}

// stripLeadingZeros removes leading zeros but keeps a single zero intact.
func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}
