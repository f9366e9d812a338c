package importer

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/model"
)

// ParseShapefile reads samples from a point shapefile, taking the value from
// the named DBF attribute field. Non-point shapes and records with an
// unparsable value are skipped, not fatal; shapefiles in the wild routinely
// carry a few null records.
func ParseShapefile(shpPath, valueField string) ([]model.Sample, error) {
	if valueField == "" {
		valueField = "value"
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	valIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, valueField) {
			valIdx = i
			break
		}
	}
	if valIdx < 0 {
		return nil, eris.Errorf("importer: attribute field %q not found in %s", valueField, shpPath)
	}

	var samples []model.Sample
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		var x, y float64
		switch s := shape.(type) {
		case *shp.Point:
			x, y = s.X, s.Y
		case *shp.PointZ:
			x, y = s.X, s.Y
		case *shp.PointM:
			x, y = s.X, s.Y
		default:
			skipped++
			continue
		}

		raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(valIdx), "\x00"))
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			skipped++
			continue
		}

		samples = append(samples, model.Sample{Lat: y, Lon: x, Value: value})
	}

	if skipped > 0 {
		zap.L().Debug("importer: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return samples, nil
}
