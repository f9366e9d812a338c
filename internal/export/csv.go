package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/interp"
)

// WriteGridCSV writes grid estimates as lat,lon,estimate rows with a header.
func WriteGridCSV(w io.Writer, res *interp.GridResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lat", "lon", "estimate"}); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for row := 0; row < res.Rows; row++ {
		for col := 0; col < res.Cols; col++ {
			p := res.Grid.Center(row, col)
			record := []string{
				strconv.FormatFloat(p.Lat, 'f', -1, 64),
				strconv.FormatFloat(p.Lon, 'f', -1, 64),
				strconv.FormatFloat(res.Value(row, col), 'f', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return eris.Wrap(err, "export: write csv row")
			}
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
