package match

import (
	"encoding/json"
	"math"
	"strconv"
)

// ConfidenceKind discriminates a Confidence value.
type ConfidenceKind int

const (
	// ConfidenceNumeric is a genuine statistical confidence.
	ConfidenceNumeric ConfidenceKind = iota

	// ConfidenceSoleMatch marks a set that had exactly one candidate when
	// scored, where a z-score is undefined.
	ConfidenceSoleMatch

	// ConfidenceSolePostalCode marks a set reduced to one candidate by the
	// postal-code filter before scoring.
	ConfidenceSolePostalCode
)

// Confidence is either a numeric statistical confidence or a sole-match
// sentinel. Downstream arithmetic must check Kind; a sentinel has no
// numeric value to average.
type Confidence struct {
	Kind  ConfidenceKind
	Value float64
}

// Numeric returns a numeric confidence.
func Numeric(v float64) Confidence {
	return Confidence{Kind: ConfidenceNumeric, Value: v}
}

// SoleMatch returns the sole-match sentinel.
func SoleMatch() Confidence {
	return Confidence{Kind: ConfidenceSoleMatch}
}

// SolePostalCode returns the sole-postal-code sentinel.
func SolePostalCode() Confidence {
	return Confidence{Kind: ConfidenceSolePostalCode}
}

// IsSentinel reports whether the confidence is a non-numeric marker.
func (c Confidence) IsSentinel() bool {
	return c.Kind != ConfidenceNumeric
}

// String renders the confidence for human-readable output. The sentinel
// texts match the registry's historical wording.
func (c Confidence) String() string {
	switch c.Kind {
	case ConfidenceSoleMatch:
		return "Sole Return Before Clustering"
	case ConfidenceSolePostalCode:
		return "Sole Postal Code"
	default:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	}
}

// MarshalJSON encodes numeric confidences as numbers and sentinels as
// their string form.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if c.IsSentinel() {
		return json.Marshal(c.String())
	}
	return json.Marshal(c.Value)
}

// scoreConfidence assigns a confidence to every candidate. A set of one
// gets the sole-match sentinel. Otherwise each candidate's confidence is
// the absolute z-score of its relevance score, as a percentage of
// threshold standard deviations: a result far from the mean stands out
// from the pack and is therefore more confident. Values above 100 are not
// capped. A zero-variance set (all scores identical) yields zero
// confidence for every candidate.
func scoreConfidence(cands []Candidate, threshold float64) []Candidate {
	if len(cands) == 1 {
		cands[0].Confidence = SoleMatch()
		return cands
	}
	if len(cands) == 0 {
		return cands
	}

	var sum float64
	for _, c := range cands {
		sum += c.Score
	}
	mean := sum / float64(len(cands))

	var variance float64
	for _, c := range cands {
		d := c.Score - mean
		variance += d * d
	}
	// Population variance, matching the z-score convention.
	variance /= float64(len(cands))
	std := math.Sqrt(variance)

	for i := range cands {
		if std == 0 {
			cands[i].Confidence = Numeric(0)
			continue
		}
		z := (cands[i].Score - mean) / std
		cands[i].Confidence = Numeric(math.Abs(z) / threshold * 100)
	}
	return cands
}
