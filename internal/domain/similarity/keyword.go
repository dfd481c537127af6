package similarity

import (
	"math"
	"strings"
)

// KeywordScore counts the words of text that also appear in query and
// dampens the count by the square root of the text length in words.
func KeywordScore(query, text string) float64 {
	textWords := strings.Fields(NormalizeText(text))
	if len(textWords) == 0 {
		return 0
	}
	queryWords := toSet(strings.Fields(NormalizeText(query)))
	matches := 0
	for _, w := range textWords {
		if _, ok := queryWords[w]; ok {
			matches++
		}
	}
	return float64(matches) / math.Sqrt(float64(len(textWords)))
}

// KeywordMatch reports the fraction of keywords whose normalized form occurs
// in the normalized text, along with the matched keywords.
func KeywordMatch(text string, keywords []string) (float64, []string) {
	hay := NormalizeText(text)
	var terms, matches []string
	for _, k := range keywords {
		if n := NormalizeText(k); n != "" {
			terms = append(terms, n)
		}
	}
	if len(terms) == 0 {
		return 0, nil
	}
	for _, t := range terms {
		if strings.Contains(hay, t) {
			matches = append(matches, t)
		}
	}
	return Clamp01(float64(len(matches)) / float64(len(terms))), matches
}
