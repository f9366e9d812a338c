// Package interp implements inverse distance weighted (IDW) estimation over
// scattered scalar samples with pluggable distance metrics.
package interp

// Point is a geographic or planar coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Sample is a known observation used as interpolation input.
type Sample struct {
	Point
	Value float64 `json:"value"`
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool {
	return b.MaxLat > b.MinLat && b.MaxLon > b.MinLon
}

// Contains reports whether p falls inside the box, edges included.
func (b BBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
