package postal

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Point is a (longitude, latitude) coordinate pair. Longitude comes first to
// match the geo-filter convention used by the profile index.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Dataset is an offline postal-code reference, loaded once at startup and
// read-only afterwards. The on-disk format is the GeoNames postal-code
// export: tab-separated, country code in column 0, postal code in column 1,
// latitude and longitude in columns 9 and 10.
type Dataset struct {
	country string
	points  map[string]Point
}

// LoadDataset reads a GeoNames-format postal file, keeping only rows for the
// given ISO country code (e.g. "CA").
func LoadDataset(path, country string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "postal: open dataset")
	}
	defer f.Close() //nolint:errcheck

	ds, err := ReadDataset(f, country)
	if err != nil {
		return nil, err
	}

	zap.L().Info("postal dataset loaded",
		zap.String("path", path),
		zap.String("country", country),
		zap.Int("codes", len(ds.points)),
	)
	return ds, nil
}

// ReadDataset parses GeoNames postal rows from r. Rows with missing or
// unparseable coordinates are skipped.
func ReadDataset(r io.Reader, country string) (*Dataset, error) {
	country = strings.ToUpper(country)
	ds := &Dataset{
		country: country,
		points:  make(map[string]Point),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 11 {
			continue
		}
		if !strings.EqualFold(fields[0], country) {
			continue
		}
		lat, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			continue
		}
		ds.points[Normalize(fields[1])] = Point{Longitude: lon, Latitude: lat}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "postal: read dataset")
	}

	return ds, nil
}

// NewDataset builds a Dataset directly from normalized code → point entries.
// Intended for tests and embedded fixtures.
func NewDataset(country string, points map[string]Point) *Dataset {
	m := make(map[string]Point, len(points))
	for code, pt := range points {
		m[Normalize(code)] = pt
	}
	return &Dataset{country: strings.ToUpper(country), points: m}
}

// Len returns the number of postal codes in the dataset.
func (d *Dataset) Len() int { return len(d.points) }

// ReverseGeocode resolves a raw postal code to its centre point. The input
// is normalized and validated first; a malformed code or a code absent from
// the dataset returns ok=false rather than an error, so callers can degrade
// to a name-only search.
func (d *Dataset) ReverseGeocode(raw string) (Point, bool) {
	code := Normalize(raw)
	if !Valid(code) {
		return Point{}, false
	}
	pt, ok := d.points[code]
	if !ok {
		zap.L().Debug("postal code not in dataset", zap.String("code", code))
	}
	return pt, ok
}
