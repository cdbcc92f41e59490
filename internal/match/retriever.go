package match

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kphang-wb/listing-match/internal/boundary"
	"github.com/kphang-wb/listing-match/internal/postal"
	"github.com/kphang-wb/listing-match/pkg/profileindex"
)

// ErrNoName signals a query without the required name. Never retried.
var ErrNoName = eris.New("match: no name supplied")

// ErrNoMatch signals that the index returned zero hits.
var ErrNoMatch = eris.New("match: no match found")

// CandidateSource retrieves candidates for a query. Implemented by
// Retriever; faked in resolver tests.
type CandidateSource interface {
	Retrieve(ctx context.Context, q Query) ([]Candidate, error)
}

// Retriever issues the index query for a resolution request, applying the
// geo-filter precedence and flattening the raw hits.
type Retriever struct {
	index      profileindex.Client
	boundaries *boundary.Resolver
	postal     *postal.Dataset
}

// NewRetriever creates a retriever. The postal dataset may be nil when
// offline reverse geocoding is unavailable; postal-code filters then
// degrade to name-only searches.
func NewRetriever(index profileindex.Client, boundaries *boundary.Resolver, ds *postal.Dataset) *Retriever {
	return &Retriever{index: index, boundaries: boundaries, postal: ds}
}

// Retrieve runs one templated search and returns the flattened candidate
// set. It fails fast with ErrNoName on an empty name and ErrNoMatch on
// zero hits. Geo-filter precedence: polygon, then boundary, then postal
// code, then none.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Name == "" {
		return nil, ErrNoName
	}

	params, err := r.buildParams(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.SearchTemplate(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "match: index query")
	}
	if len(hits) == 0 {
		return nil, ErrNoMatch
	}

	return candidatesFromHits(hits), nil
}

func (r *Retriever) buildParams(ctx context.Context, q Query) (profileindex.Params, error) {
	params := profileindex.Params{Keywords: q.Name}

	switch {
	case len(q.Polygon) > 0:
		// Pass-through; index-side polygon filtering is unverified.
		polygon := make([][]float64, len(q.Polygon))
		for i, c := range q.Polygon {
			polygon[i] = []float64{c[0], c[1]}
		}
		params.Polygon = polygon

	case q.Boundary != nil:
		box, err := r.resolveBoundary(ctx, *q.Boundary)
		if err != nil {
			return profileindex.Params{}, err
		}
		params.LowerBounds = box.TopLeft
		params.UpperBounds = box.BottomRight
		params.Center = [][]float64{box.Center()}

	case q.PostalCode != "":
		if r.postal != nil {
			if pt, ok := r.postal.ReverseGeocode(q.PostalCode); ok {
				params.Center = [][]float64{{pt.Longitude, pt.Latitude}}
				break
			}
		}
		// Malformed or unknown code: degrade to a name-only search.
		zap.L().Debug("match: postal code unusable for geo filter",
			zap.String("postal_code", q.PostalCode),
		)
	}

	return params, nil
}

func (r *Retriever) resolveBoundary(ctx context.Context, spec BoundarySpec) (boundary.Box, error) {
	switch {
	case spec.Box != nil:
		return boundary.Box{TopLeft: spec.Box.TopLeft, BottomRight: spec.Box.BottomRight}, nil
	case spec.Text != "":
		return r.boundaries.Resolve(ctx, spec.Text)
	case spec.Address != nil:
		return r.boundaries.ResolveAddress(ctx, *spec.Address)
	default:
		return boundary.Box{}, eris.New("match: empty boundary spec")
	}
}
