package fetcher

import (
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Latin1Reader decodes ISO 8859-1 input to UTF-8. Legacy GIS exports
// (older DBF-derived CSVs in particular) commonly ship in Latin-1.
func Latin1Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
}
