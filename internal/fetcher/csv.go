package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // comment character (0 = none)
	TrimSpace bool
}

// EachRecord reads CSV records and invokes fn for every data row. The first
// row is treated as the header and passed to fn alongside each record.
// Returning an error from fn stops the read.
func EachRecord(ctx context.Context, r io.Reader, opts CSVOptions, fn func(header, record []string) error) error {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	var header []string
	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "csv: read cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if header == nil {
			header = record
			continue
		}
		if err := fn(header, record); err != nil {
			return err
		}
	}
}
