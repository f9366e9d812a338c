package importer

import (
	"context"
	"io"

	"github.com/terrastat/surfacer/internal/fetcher"
	"github.com/terrastat/surfacer/internal/model"
)

// ParseCSV reads samples from CSV input. The first row must be a header
// containing the configured lat/lon/value columns.
func ParseCSV(ctx context.Context, r io.Reader, opts Options) ([]model.Sample, error) {
	opts = opts.withDefaults()

	var samples []model.Sample
	var latIdx, lonIdx, valIdx int
	resolved := false

	err := fetcher.EachRecord(ctx, r, fetcher.CSVOptions{TrimSpace: true}, func(header, record []string) error {
		if !resolved {
			var err error
			if latIdx, err = columnIndex(header, opts.LatColumn); err != nil {
				return err
			}
			if lonIdx, err = columnIndex(header, opts.LonColumn); err != nil {
				return err
			}
			if valIdx, err = columnIndex(header, opts.ValueColumn); err != nil {
				return err
			}
			resolved = true
		}

		s, err := parseSample(record, latIdx, lonIdx, valIdx)
		if err != nil {
			return err
		}
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}
