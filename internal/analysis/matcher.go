// Package analysis turns crawled site content into deduplicated offerings,
// detects business type, and matches offerings against a user's product
// catalog to produce competitor insights.
package analysis

import (
	"math"
	"strings"
)

// Score tiers for name matching.
const (
	scoreExact     = 100
	scoreSubstring = 90
	// scoreTokenCap caps the token-overlap tier below the substring tier.
	scoreTokenCap = 95
)

// minTokenLen is the shortest token considered during token matching.
const minTokenLen = 3

// stopWords are dropped before tokenizing names: articles, common
// prepositions, and unit words that carry no product identity.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "or": {},
	"of": {}, "for": {}, "with": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "by": {}, "from": {}, "per": {},
	"night": {}, "person": {}, "occupancy": {},
}

// ScoreNames computes the similarity of two product/offering names on a
// 0-100 scale. Exact (normalized) equality scores 100, substring
// containment either direction 90; otherwise the token-overlap ratio is
// scaled to 100, rounded, and capped at 95. Zero overlapping tokens score 0.
func ScoreNames(a, b string) int {
	na := normalizeName(a)
	nb := normalizeName(b)

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return scoreExact
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return scoreSubstring
	}

	tokensA := tokenize(na)
	tokensB := tokenize(nb)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	matching := 0
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matching++
				break
			}
		}
	}

	if matching == 0 {
		return 0
	}

	denom := len(tokensA)
	if len(tokensB) > denom {
		denom = len(tokensB)
	}

	score := int(math.Round(float64(matching) / float64(denom) * 100))
	if score > scoreTokenCap {
		score = scoreTokenCap
	}

	return score
}

// normalizeName lowercases and trims a name for comparison.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// tokenize strips punctuation, splits on whitespace, and drops stop words
// and tokens shorter than minTokenLen.
func tokenize(name string) []string {
	var cleaned strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteByte(' ')
		}
	}

	fields := strings.Fields(cleaned.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLen {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}

	return tokens
}

// PriceDiff returns the competitor price relative to the user price in
// percent, rounded to one decimal. Nil when either price is missing or the
// user price is zero.
func PriceDiff(userPrice, competitorPrice *float64) *float64 {
	if userPrice == nil || competitorPrice == nil || *userPrice == 0 {
		return nil
	}

	diff := math.Round((*competitorPrice-*userPrice)/(*userPrice)*1000) / 10
	return &diff
}
