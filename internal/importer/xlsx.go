package importer

import (
	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/fetcher"
	"github.com/terrastat/surfacer/internal/model"
)

// ParseXLSX reads samples from the first (or named) sheet of an XLSX
// workbook. The first row must be a header.
func ParseXLSX(path, sheetName string, opts Options) ([]model.Sample, error) {
	opts = opts.withDefaults()

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheetName})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("importer: %s has no rows", path)
	}

	header := rows[0]
	latIdx, err := columnIndex(header, opts.LatColumn)
	if err != nil {
		return nil, err
	}
	lonIdx, err := columnIndex(header, opts.LonColumn)
	if err != nil {
		return nil, err
	}
	valIdx, err := columnIndex(header, opts.ValueColumn)
	if err != nil {
		return nil, err
	}

	samples := make([]model.Sample, 0, len(rows)-1)
	for _, row := range rows[1:] {
		s, err := parseSample(row, latIdx, lonIdx, valIdx)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}
