package fuzzy

import (
	"strings"
	"unicode"
)

// Distance calculates the case-insensitive edit distance between two
// strings.
func Distance(s1, s2 string) int {
	a := strings.ToLower(s1)
	b := strings.ToLower(s2)

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity returns a score between 0 and 1; 1.0 means identical
// ignoring case.
func Similarity(s1, s2 string) float64 {
	maxLen := max(len(s1), len(s2))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Distance(s1, s2))/float64(maxLen)
}

// Match reports whether the query matches the text with tolerance for
// typos. An exact substring match always wins; otherwise each query word
// must be close to some word of the text.
func Match(text, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)
	if strings.Contains(textLower, queryLower) {
		return true
	}

	textWords := splitWords(textLower)
	queryWords := splitWords(queryLower)
	if len(queryWords) == 0 {
		return false
	}

	matched := 0
	for _, q := range queryWords {
		threshold := wordThreshold(q)
		for _, w := range textWords {
			if Similarity(w, q) >= threshold {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(queryWords)) >= 0.6
}

// Score rates how well text matches the query; higher is better. Prefix
// matches rank above substring matches, which rank above fuzzy ones.
func Score(text, query string) float64 {
	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(strings.TrimSpace(query))

	if queryLower == "" {
		return 0.0
	}
	if strings.HasPrefix(textLower, queryLower) {
		return 1.0
	}
	if strings.Contains(textLower, queryLower) {
		return 0.95
	}

	textWords := splitWords(textLower)
	queryWords := splitWords(queryLower)
	if len(queryWords) == 0 {
		return 0.0
	}

	var total float64
	for _, q := range queryWords {
		var best float64
		for _, w := range textWords {
			if sim := Similarity(w, q); sim > best {
				best = sim
			}
		}
		total += best
	}
	return (total / float64(len(queryWords))) * 0.9
}

// wordThreshold is stricter for short words: a single edit in a three
// letter word is a different word, not a typo.
func wordThreshold(word string) float64 {
	switch {
	case len(word) <= 3:
		return 0.8
	case len(word) <= 5:
		return 0.7
	default:
		return 0.65
	}
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
