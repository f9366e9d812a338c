package interp

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Grid describes a regular grid of square cells covering a bounding box.
// Estimates are taken at cell centers.
type Grid struct {
	BBox    BBox    `json:"bbox"`
	CellDeg float64 `json:"cell_deg"`
}

// Dims returns the number of rows and columns. The grid fully covers the
// box, so the last row/column may extend past the max edge.
func (g Grid) Dims() (rows, cols int) {
	rows = int((g.BBox.MaxLat - g.BBox.MinLat) / g.CellDeg)
	if float64(rows)*g.CellDeg < g.BBox.MaxLat-g.BBox.MinLat {
		rows++
	}
	cols = int((g.BBox.MaxLon - g.BBox.MinLon) / g.CellDeg)
	if float64(cols)*g.CellDeg < g.BBox.MaxLon-g.BBox.MinLon {
		cols++
	}
	return rows, cols
}

// Center returns the center point of cell (row, col). Row 0 is the southern
// edge, column 0 the western edge.
func (g Grid) Center(row, col int) Point {
	return Point{
		Lat: g.BBox.MinLat + (float64(row)+0.5)*g.CellDeg,
		Lon: g.BBox.MinLon + (float64(col)+0.5)*g.CellDeg,
	}
}

// GridResult holds row-major estimates for a grid evaluation.
type GridResult struct {
	Grid   Grid      `json:"grid"`
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Values []float64 `json:"values"`
}

// Value returns the estimate for cell (row, col).
func (r *GridResult) Value(row, col int) float64 {
	return r.Values[row*r.Cols+col]
}

// EvaluateGrid computes IDW estimates at every cell center of g. Rows are
// evaluated in parallel with at most workers goroutines (NumCPU when
// workers <= 0). Each row writes a disjoint slice range, so the output is
// identical to a sequential evaluation.
func EvaluateGrid(ctx context.Context, g Grid, samples []Sample, alpha float64, dist Metric, workers int) (*GridResult, error) {
	if !g.BBox.Valid() {
		return nil, eris.New("interp: grid bbox has no extent")
	}
	if g.CellDeg <= 0 {
		return nil, eris.New("interp: grid cell size must be positive")
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if alpha <= 0 {
		return nil, ErrAlpha
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rows, cols := g.Dims()
	res := &GridResult{
		Grid:   g,
		Rows:   rows,
		Cols:   cols,
		Values: make([]float64, rows*cols),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for row := 0; row < rows; row++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := res.Values[row*cols : (row+1)*cols]
			for col := 0; col < cols; col++ {
				v, err := Estimate(g.Center(row, col), samples, alpha, dist)
				if err != nil {
					return err
				}
				out[col] = v
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
