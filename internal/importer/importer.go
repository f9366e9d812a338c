// Package importer parses sample datasets from CSV, XLSX, and point
// shapefiles into store rows.
package importer

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/model"
)

// Options maps source columns/fields to sample attributes.
type Options struct {
	LatColumn   string // default "lat"
	LonColumn   string // default "lon"
	ValueColumn string // default "value"
}

func (o Options) withDefaults() Options {
	if o.LatColumn == "" {
		o.LatColumn = "lat"
	}
	if o.LonColumn == "" {
		o.LonColumn = "lon"
	}
	if o.ValueColumn == "" {
		o.ValueColumn = "value"
	}
	return o
}

// columnIndex resolves a case-insensitive column name to its header index.
func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return 0, eris.Errorf("importer: column %q not found in header", name)
}

// parseSample converts one record into a sample using resolved indexes.
func parseSample(record []string, latIdx, lonIdx, valIdx int) (model.Sample, error) {
	max := latIdx
	if lonIdx > max {
		max = lonIdx
	}
	if valIdx > max {
		max = valIdx
	}
	if len(record) <= max {
		return model.Sample{}, eris.Errorf("importer: record has %d fields, need %d", len(record), max+1)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
	if err != nil {
		return model.Sample{}, eris.Wrapf(err, "importer: parse lat %q", record[latIdx])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(record[lonIdx]), 64)
	if err != nil {
		return model.Sample{}, eris.Wrapf(err, "importer: parse lon %q", record[lonIdx])
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[valIdx]), 64)
	if err != nil {
		return model.Sample{}, eris.Wrapf(err, "importer: parse value %q", record[valIdx])
	}

	if lat < -90 || lat > 90 {
		return model.Sample{}, eris.Errorf("importer: latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return model.Sample{}, eris.Errorf("importer: longitude %v out of range", lon)
	}

	return model.Sample{Lat: lat, Lon: lon, Value: value}, nil
}
