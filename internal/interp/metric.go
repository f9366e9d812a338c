package interp

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Metric computes the distance between two points. A metric must return a
// non-negative value, and zero only for identical points. Errors returned by
// a metric abort the estimation and reach the caller unwrapped.
type Metric func(a, b Point) (float64, error)

// earthRadiusKM is the mean Earth radius used by Haversine.
const earthRadiusKM = 6371.0

// Euclidean is the planar distance in coordinate units. It treats latitude
// and longitude as an abstract x/y plane, which is fine for small extents
// and for non-geographic sample sets.
func Euclidean(a, b Point) (float64, error) {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat + dLon*dLon), nil
}

// Haversine is the great-circle distance in kilometers.
func Haversine(a, b Point) (float64, error) {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h))), nil
}

// MetricByName resolves a metric from its CLI/config name.
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euclidean":
		return Euclidean, nil
	case "haversine":
		return Haversine, nil
	default:
		return nil, eris.Errorf("interp: unknown metric %q", name)
	}
}
