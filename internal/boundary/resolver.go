package boundary

import (
	"context"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/kphang-wb/listing-match/pkg/nominatim"
)

// Resolver turns location queries into bounding boxes.
type Resolver struct {
	client      nominatim.Client
	countryCode string
	pause       time.Duration
	sleep       func(context.Context, time.Duration)
}

// Option configures the resolver.
type Option func(*Resolver)

// WithCountryCode restricts geocoding to one ISO country code. Default "ca".
func WithCountryCode(code string) Option {
	return func(r *Resolver) {
		r.countryCode = code
	}
}

// WithPause sets the delay observed after each successful geocoder call
// before returning. Default 1s; zero disables it.
func WithPause(d time.Duration) Option {
	return func(r *Resolver) {
		r.pause = d
	}
}

// NewResolver creates a boundary resolver over the given geocoding client.
func NewResolver(client nominatim.Client, opts ...Option) *Resolver {
	r := &Resolver{
		client:      client,
		countryCode: "ca",
		pause:       time.Second,
		sleep:       sleepCtx,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve geocodes a free-text location into a tight bounding box. A miss
// triggers one retry with everything up to and including the first comma
// stripped, which broadens very specific street addresses to their town or
// region. If both lookups miss, the country-wide fallback box is returned.
// Geocoder failures degrade to the fallback rather than propagating.
func (r *Resolver) Resolve(ctx context.Context, searchText string) (Box, error) {
	place, err := r.lookup(ctx, searchText)
	if err != nil {
		return Box{}, err
	}

	if place == nil {
		if broader, ok := stripFirstSegment(searchText); ok {
			zap.L().Debug("boundary: retrying with broader query",
				zap.String("original", searchText),
				zap.String("broader", broader),
			)
			place, err = r.lookup(ctx, broader)
			if err != nil {
				return Box{}, err
			}
		}
	}

	if place == nil {
		zap.L().Debug("boundary: falling back to country-wide box",
			zap.String("query", searchText),
		)
		return CanadaBox(), nil
	}

	return boxFromPlace(place), nil
}

// ResolveAddress geocodes a structured address into a bounding box. There
// is no broader-query retry here; structured queries are already
// unambiguous about which field is which. A miss returns the country-wide
// fallback.
func (r *Resolver) ResolveAddress(ctx context.Context, addr nominatim.Address) (Box, error) {
	place, err := r.lookupStructured(ctx, addr)
	if err != nil {
		return Box{}, err
	}
	if place == nil {
		return CanadaBox(), nil
	}
	return boxFromPlace(place), nil
}

func (r *Resolver) lookup(ctx context.Context, query string) (*nominatim.Place, error) {
	place, err := r.client.Search(ctx, query, r.countryCode)
	return r.afterLookup(ctx, place, err)
}

func (r *Resolver) lookupStructured(ctx context.Context, addr nominatim.Address) (*nominatim.Place, error) {
	place, err := r.client.SearchStructured(ctx, addr, r.countryCode)
	return r.afterLookup(ctx, place, err)
}

// afterLookup folds geocoder failures into misses and applies the courtesy
// pause after every successful call. Only context cancellation escapes as
// an error.
func (r *Resolver) afterLookup(ctx context.Context, place *nominatim.Place, err error) (*nominatim.Place, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		zap.L().Warn("boundary: geocoder lookup failed", zap.Error(err))
		return nil, nil
	}
	if place != nil && r.pause > 0 {
		r.sleep(ctx, r.pause)
	}
	return place, nil
}

// boxFromPlace maps the geocoder's raw [south, north, west, east] ordering
// into corner coordinates: top_left = (west, north), bottom_right =
// (east, south).
func boxFromPlace(p *nominatim.Place) Box {
	bb := p.BoundingBox
	return Box{
		TopLeft:     geom.Coord{bb[2], bb[1]},
		BottomRight: geom.Coord{bb[3], bb[0]},
	}
}

// stripFirstSegment removes everything up to and including the first comma
// and trims leading spaces. ok is false when there is no comma to strip.
func stripFirstSegment(s string) (string, bool) {
	idx := strings.Index(s, ",")
	if idx < 0 {
		return "", false
	}
	return strings.TrimLeft(s[idx+1:], " "), true
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
