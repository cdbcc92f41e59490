// Package match resolves a noisy organization description to a single
// confident listing in the profile index, or reports that no confident
// match exists. The pipeline retrieves name/location candidates, separates
// a clear winner from noise by statistical scoring and density clustering,
// and blends the result with fuzzy name similarity into a combined
// confidence.
package match

import (
	"github.com/twpayne/go-geom"

	"github.com/kphang-wb/listing-match/pkg/nominatim"
	"github.com/kphang-wb/listing-match/pkg/profileindex"
)

// Candidate is one retrieved listing record, flattened from the index hit.
// Confidence and Cluster are filled in by the scoring and clustering steps.
type Candidate struct {
	ID          string
	Score       float64
	Name        string
	AlsoKnownAs []string
	Locality    string
	PostalCode  string
	Tags        profileindex.Tags

	Confidence Confidence
	Cluster    int
}

// BoundarySpec is a geographic boundary input in one of three forms.
// Exactly one field should be set; Box wins over Text over Address.
type BoundarySpec struct {
	// Box passes corner coordinates directly, skipping the geocoder.
	Box *Box

	// Text is a free-form location (address, city, region) for the
	// geocoder to turn into a bounding box.
	Text string

	// Address is a structured geocoder query, less prone to
	// misinterpretation than free text.
	Address *nominatim.Address
}

// Box re-exports the boundary box type for callers of this package.
type Box struct {
	TopLeft     geom.Coord
	BottomRight geom.Coord
}

// Query is a single resolution request. Name is required; the remaining
// fields narrow the search. Exactly one geographic filter applies, with
// precedence polygon > boundary > postal code > none.
type Query struct {
	// Name is the organization name to search for. Keep locations out of
	// the name itself; the index ranks poorly on names with extraneous
	// location text.
	Name string

	// PostalCode is a raw Canadian postal code. Missing space or wrong
	// case is fine; genuinely malformed codes degrade to a name-only
	// search.
	PostalCode string

	// Boundary restricts the search geographically.
	Boundary *BoundarySpec

	// Polygon is an ordered ring of (longitude, latitude) coordinates
	// passed to the index as-is.
	Polygon []geom.Coord

	// Epsilon is the clustering density parameter. Zero means the
	// resolver default (4.0). Raising it makes matching more
	// conservative.
	Epsilon float64
}

// candidatesFromHits flattens raw index hits into candidates, dropping the
// index-internal bookkeeping and guaranteeing AlsoKnownAs is non-nil even
// when the index omits the field.
func candidatesFromHits(hits []profileindex.Hit) []Candidate {
	cands := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		aka := h.Source.AlsoKnownAs
		if aka == nil {
			aka = []string{}
		}
		cands = append(cands, Candidate{
			ID:          h.ID,
			Score:       h.Score,
			Name:        h.Source.Name,
			AlsoKnownAs: aka,
			Locality:    h.Source.Locality,
			PostalCode:  h.Source.PostalCode,
			Tags:        h.Source.Tags,
		})
	}
	return cands
}
