package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// partialRatio is a case-insensitive partial fuzzy match on a 0-100 scale:
// the shorter string is slid across the longer one and the best window
// scores the pair. Short queries can therefore score 100 against long
// candidate names that contain them.
func partialRatio(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}

	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}

	best := 0
	for start := 0; start+len(short) <= len(long); start++ {
		window := string(long[start : start+len(short)])
		dist := levenshtein.ComputeDistance(string(short), window)
		ratio := 100 * (len(short) - dist) / len(short)
		if ratio > best {
			best = ratio
		}
		if best == 100 {
			break
		}
	}
	return best
}

// nameSimilarity scores the input name against a candidate: the greater of
// the partial ratio with the candidate's name and with its joined
// also-known-as aliases.
func nameSimilarity(input string, c Candidate) int {
	sim := partialRatio(input, c.Name)
	if aka := strings.Join(c.AlsoKnownAs, ","); aka != "" {
		if s := partialRatio(input, aka); s > sim {
			sim = s
		}
	}
	return sim
}

// combinedConfidence blends statistical confidence with name similarity:
// the arithmetic mean when the confidence is numeric, the similarity alone
// when it is a sentinel.
func combinedConfidence(similarity int, conf Confidence) float64 {
	if conf.IsSentinel() {
		return float64(similarity)
	}
	return (float64(similarity) + conf.Value) / 2
}
