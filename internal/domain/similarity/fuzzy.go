package similarity

import "strings"

// Blend weights for FuzzyStringMatch.
const (
	levWeight       = 0.4
	jaccardWeight   = 0.4
	heuristicWeight = 0.2

	acronymBothScore    = 0.8
	acronymLiteralScore = 0.7
)

// Scorer rates how similar two strings are on a [0,1] scale.
type Scorer func(a, b string) float64

// FuzzyStringMatch blends normalized edit similarity, stemmed token Jaccard
// and the better of the substring and acronym heuristics. Either side
// normalizing to the empty string scores 0.
func FuzzyStringMatch(s1, s2 string) float64 {
	a, b := NormalizeText(s1), NormalizeText(s2)
	if a == "" || b == "" {
		return 0
	}

	maxLen := max(len(a), len(b))
	lev := 1 - float64(Levenshtein(a, b))/float64(maxLen)

	return Clamp01(levWeight*lev +
		jaccardWeight*tokenJaccard(a, b) +
		heuristicWeight*max(substringScore(a, b), acronymScore(a, b)))
}

func tokenJaccard(a, b string) float64 {
	setA := toSet(Tokenize(a))
	setB := toSet(Tokenize(b))
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func substringScore(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.Contains(longer, shorter) {
		return 0
	}
	return float64(len(shorter)) / float64(len(longer))
}

func acronymScore(a, b string) float64 {
	acrA, acrB := Acronym(a), Acronym(b)
	switch {
	case acrA != "" && acrA == acrB:
		return acronymBothScore
	case acrA == b || acrB == a:
		return acronymLiteralScore
	}
	return 0
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Match is the outcome of FindBestMatch.
type Match struct {
	Candidate string
	Score     float64
}

// FindBestMatch scans candidates with FuzzyStringMatch.
func FindBestMatch(query string, candidates []string) Match {
	return FindBestMatchWith(FuzzyStringMatch, query, candidates)
}

// FindBestMatchWith returns the highest scoring candidate under score.
// Only a strictly greater score replaces the current best, so ties keep the
// earliest candidate. With no candidate above 0 the zero Match is returned.
func FindBestMatchWith(score Scorer, query string, candidates []string) Match {
	var best Match
	for _, c := range candidates {
		if s := score(query, c); s > best.Score {
			best = Match{Candidate: c, Score: s}
		}
	}
	return best
}
