package match

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kphang-wb/listing-match/internal/postal"
	"github.com/kphang-wb/listing-match/internal/resilience"
)

const (
	// DefaultEpsilon is the clustering density parameter. Lowering it
	// below ~1.5 inflates false positives; raising it eventually rejects
	// every match.
	DefaultEpsilon = 4.0

	// DefaultThreshold is the number of standard deviations from the mean
	// score treated as 100% confidence.
	DefaultThreshold = 3.5
)

// Outcome states why a resolution ended the way it did. Every failure path
// converges on a nil result; the outcome keeps an ambiguous abort
// distinguishable from an empty retrieval.
type Outcome int

const (
	// OutcomeMatched means a single confident match was produced.
	OutcomeMatched Outcome = iota

	// OutcomeNoName means the query had no name to search for.
	OutcomeNoName

	// OutcomeNoCandidates means no candidates survived retrieval or the
	// postal-code filter.
	OutcomeNoCandidates

	// OutcomeAmbiguous means the top-scoring candidate was not separable
	// from its neighbors.
	OutcomeAmbiguous

	// OutcomeQueryFailed means the index could not be queried within the
	// retry budget.
	OutcomeQueryFailed
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoName:
		return "no_name"
	case OutcomeNoCandidates:
		return "no_candidates"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeQueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

// MatchResult is the immutable decision record for a successful
// resolution.
type MatchResult struct {
	ID                 string            `json:"id"`
	Confidence         Confidence        `json:"confidence"`
	Name               string            `json:"name"`
	AlsoKnownAs        string            `json:"alsoKnownAs"`
	Locality           string            `json:"locality"`
	PostalCode         string            `json:"postalCode"`
	Denomination       string            `json:"denomination"`
	LevenshteinScore   int               `json:"levenshteinScore"`
	CombinedConfidence float64           `json:"combinedConfidence"`
	Diagnostics        *DiagnosticReport `json:"diagnostics,omitempty"`
}

// Resolver drives a resolution end to end: query, postal filter, scoring,
// clustering, selection, finalization.
type Resolver struct {
	source    CandidateSource
	retry     resilience.Policy
	epsilon   float64
	threshold float64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRetryPolicy overrides the index-query retry policy.
func WithRetryPolicy(p resilience.Policy) ResolverOption {
	return func(r *Resolver) {
		r.retry = p
	}
}

// WithEpsilon overrides the default clustering density parameter.
func WithEpsilon(eps float64) ResolverOption {
	return func(r *Resolver) {
		r.epsilon = eps
	}
}

// WithThreshold overrides the default confidence threshold.
func WithThreshold(t float64) ResolverOption {
	return func(r *Resolver) {
		r.threshold = t
	}
}

// NewResolver creates a match resolver over a candidate source.
func NewResolver(source CandidateSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:    source,
		retry:     resilience.DefaultPolicy(),
		epsilon:   DefaultEpsilon,
		threshold: DefaultThreshold,
	}
	r.retry.OnRetry = resilience.Logger("profileindex", "search_template")
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve runs the pipeline for one query. A nil result means no confident
// match; the outcome says why. diag is optional; when given, the result
// carries the requested field comparisons. The returned error is reserved
// for context cancellation; expected ambiguity and retrieval failures are
// outcomes, not errors.
func (r *Resolver) Resolve(ctx context.Context, q Query, diag *DiagnosticExpect) (*MatchResult, Outcome, error) {
	log := zap.L().With(zap.String("component", "match.resolver"), zap.String("name", q.Name))

	// Querying. Only transient index failures consume retry attempts; any
	// other outcome ends the loop at once.
	cands, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) ([]Candidate, error) {
		return r.source.Retrieve(ctx, q)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, OutcomeQueryFailed, ctx.Err()
		}
		switch {
		case eris.Is(err, ErrNoName):
			return nil, OutcomeNoName, nil
		case eris.Is(err, ErrNoMatch):
			log.Debug("no hits from index")
			return nil, OutcomeNoCandidates, nil
		default:
			log.Warn("index query failed", zap.Error(err))
			return nil, OutcomeQueryFailed, nil
		}
	}

	// PostalFilter. A sole survivor decides confidence without scoring or
	// clustering.
	solePostal := false
	if q.PostalCode != "" {
		cands = filterByPostalCode(cands, q.PostalCode)
		if len(cands) == 1 {
			cands[0].Confidence = SolePostalCode()
			solePostal = true
		}
	}

	// Scoring.
	if !solePostal {
		cands = scoreConfidence(cands, r.threshold)
	}

	// Clustering. Only meaningful with more than one candidate.
	if !solePostal && len(cands) > 1 {
		eps := q.Epsilon
		if eps <= 0 {
			eps = r.epsilon
		}
		cands = clusterScores(cands, eps)
		if n := topClusterSize(cands); n != 1 {
			log.Debug("top score not separable", zap.Int("cluster_size", n))
			return nil, OutcomeAmbiguous, nil
		}
	}

	// Selecting.
	if len(cands) == 0 {
		return nil, OutcomeNoCandidates, nil
	}
	selected := selectTop(cands)

	// Finalizing.
	result := finalize(q.Name, selected, diag)
	log.Info("resolved",
		zap.String("id", result.ID),
		zap.String("confidence", result.Confidence.String()),
		zap.Float64("combined", result.CombinedConfidence),
	)
	return result, OutcomeMatched, nil
}

// filterByPostalCode keeps candidates whose normalized postal code equals
// the normalized input, rewriting each kept candidate's code to the
// normalized form.
func filterByPostalCode(cands []Candidate, raw string) []Candidate {
	want := postal.Normalize(raw)
	kept := cands[:0]
	for _, c := range cands {
		code := postal.Normalize(c.PostalCode)
		if code == want {
			c.PostalCode = code
			kept = append(kept, c)
		}
	}
	return kept
}

// selectTop picks the maximum-score candidate. Ties are broken
// deterministically by id.
func selectTop(cands []Candidate) Candidate {
	top := cands[0].Score
	for _, c := range cands[1:] {
		if c.Score > top {
			top = c.Score
		}
	}
	tied := make([]Candidate, 0, 1)
	for _, c := range cands {
		if c.Score == top {
			tied = append(tied, c)
		}
	}
	sort.SliceStable(tied, func(a, b int) bool { return tied[a].ID < tied[b].ID })
	return tied[0]
}

func finalize(inputName string, c Candidate, diag *DiagnosticExpect) *MatchResult {
	sim := nameSimilarity(inputName, c)
	result := &MatchResult{
		ID:                 c.ID,
		Confidence:         c.Confidence,
		Name:               c.Name,
		AlsoKnownAs:        strings.Join(c.AlsoKnownAs, ","),
		Locality:           c.Locality,
		PostalCode:         c.PostalCode,
		Denomination:       c.Tags.Denomination,
		LevenshteinScore:   sim,
		CombinedConfidence: combinedConfidence(sim, c.Confidence),
	}
	if diag != nil {
		result.Diagnostics = diag.Compare(c)
	}
	return result
}
