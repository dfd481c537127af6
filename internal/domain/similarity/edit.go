package similarity

import "strings"

// Levenshtein returns the edit distance between a and b, counting runes.
// Insertion, deletion and substitution each cost 1.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Full (|a|+1) x (|b|+1) matrix.
	m := make([][]int, len(ra)+1)
	for i := range m {
		m[i] = make([]int, len(rb)+1)
		m[i][0] = i
	}
	for j := range m[0] {
		m[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			m[i][j] = min(m[i-1][j]+1, m[i][j-1]+1, m[i-1][j-1]+cost)
		}
	}
	return m[len(ra)][len(rb)]
}

// LevenshteinRatio scores a and b as 1 - distance/maxLen after lowercasing
// both. Two empty strings score 1.
func LevenshteinRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(maxLen)
}
