// Package export writes samples and grid results as GeoJSON and CSV.
package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
)

// SamplesFeatureCollection converts stored samples to GeoJSON point features
// with the value and sample id as properties. GeoJSON positions are
// lon-first.
func SamplesFeatureCollection(samples []model.Sample) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for _, s := range samples {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{s.Lon, s.Lat}).SetSRID(4326),
			Properties: map[string]any{
				"value": s.Value,
			},
		})
	}
	return fc
}

// GridFeatureCollection converts grid estimates to GeoJSON point features at
// cell centers.
func GridFeatureCollection(res *interp.GridResult) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for row := 0; row < res.Rows; row++ {
		for col := 0; col < res.Cols; col++ {
			p := res.Grid.Center(row, col)
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(4326),
				Properties: map[string]any{
					"row":      row,
					"col":      col,
					"estimate": res.Value(row, col),
				},
			})
		}
	}
	return fc
}

// WriteGeoJSON encodes the collection to w.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
