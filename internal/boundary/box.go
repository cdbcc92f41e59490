// Package boundary converts free-text or structured locations into bounding
// boxes using an external geocoder, with a broader-query retry and a
// country-wide fallback so a geocode miss never aborts a resolution.
package boundary

import "github.com/twpayne/go-geom"

// Box is a rectangular geographic filter expressed as two opposite corner
// coordinates, each ordered (longitude, latitude). Corners are passed
// through exactly as the geocoder reported them; no ordering between the
// corners is assumed.
type Box struct {
	TopLeft     geom.Coord `json:"top_left"`
	BottomRight geom.Coord `json:"bottom_right"`
}

// Center returns the midpoint of the two corners, ordered (longitude,
// latitude).
func (b Box) Center() geom.Coord {
	return geom.Coord{
		(b.TopLeft[0] + b.BottomRight[0]) / 2,
		(b.TopLeft[1] + b.BottomRight[1]) / 2,
	}
}

// CanadaBox is the continental fallback boundary used when the geocoder
// cannot place a location at all.
func CanadaBox() Box {
	return Box{
		TopLeft:     geom.Coord{-166.73, 76.27},
		BottomRight: geom.Coord{-28.74, 41.18},
	}
}
