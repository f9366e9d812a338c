package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/export"
	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
	"github.com/terrastat/surfacer/internal/store"
	"github.com/terrastat/surfacer/internal/surface"
)

var (
	gridJobPath string
	gridDataset string
	gridBBox    []float64
	gridCell    float64
	gridAlpha   float64
	gridMetric  string
	gridWorkers int
	gridOut     string
	gridFormat  string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Evaluate an interpolated surface over a grid",
	Long:  "Evaluates inverse distance weighted estimates at every cell center of a regular grid and writes the surface as GeoJSON or CSV. Parameters come from flags or a YAML job file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		job, err := resolveGridJob()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := store.ResolveDataset(ctx, st, job.Dataset)
		if err != nil {
			return eris.Wrap(err, "grid")
		}

		samples, err := st.ListSamples(ctx, ds.ID, store.SampleFilter{})
		if err != nil {
			return eris.Wrap(err, "grid")
		}

		metric, err := interp.MetricByName(job.Metric)
		if err != nil {
			return err
		}

		res, err := interp.EvaluateGrid(ctx, job.Grid(), model.InterpSamples(samples), job.Alpha, metric, job.Workers)
		if err != nil {
			return eris.Wrap(err, "grid")
		}

		var out io.Writer = os.Stdout
		if job.Output != "" {
			f, err := os.Create(job.Output)
			if err != nil {
				return eris.Wrapf(err, "create %s", job.Output)
			}
			defer f.Close()
			out = f
		}

		switch job.Format {
		case "csv":
			err = export.WriteGridCSV(out, res)
		default:
			err = export.WriteGeoJSON(out, export.GridFeatureCollection(res))
		}
		if err != nil {
			return eris.Wrap(err, "grid")
		}

		zap.L().Info("grid evaluated",
			zap.String("dataset", ds.Name),
			zap.Int("rows", res.Rows),
			zap.Int("cols", res.Cols),
			zap.Int("samples", len(samples)),
		)
		return nil
	},
}

// resolveGridJob builds the job from the --job file or from flags.
// Flags override file values when both are given.
func resolveGridJob() (*surface.Job, error) {
	if gridJobPath != "" {
		return surface.Load(gridJobPath)
	}

	bbox, err := parseBBox(gridBBox)
	if err != nil {
		return nil, err
	}

	job := &surface.Job{
		Dataset: gridDataset,
		MinLat:  bbox.MinLat,
		MinLon:  bbox.MinLon,
		MaxLat:  bbox.MaxLat,
		MaxLon:  bbox.MaxLon,
		CellDeg: gridCell,
		Alpha:   gridAlpha,
		Metric:  gridMetric,
		Workers: gridWorkers,
		Output:  gridOut,
		Format:  gridFormat,
	}
	if job.Alpha == 0 {
		job.Alpha = cfg.Interp.Alpha
	}
	if job.Metric == "" {
		job.Metric = cfg.Interp.Metric
	}
	if job.Workers == 0 {
		job.Workers = cfg.Interp.GridWorkers
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

func init() {
	gridCmd.Flags().StringVar(&gridJobPath, "job", "", "YAML job file (overrides other flags)")
	gridCmd.Flags().StringVar(&gridDataset, "dataset", "", "dataset id or name")
	gridCmd.Flags().Float64SliceVar(&gridBBox, "bbox", nil, "extent as min-lat,min-lon,max-lat,max-lon")
	gridCmd.Flags().Float64Var(&gridCell, "cell", 0.1, "cell size in degrees")
	gridCmd.Flags().Float64Var(&gridAlpha, "alpha", 0, "distance decay exponent (default from config)")
	gridCmd.Flags().StringVar(&gridMetric, "metric", "", "distance metric (euclidean, haversine)")
	gridCmd.Flags().IntVar(&gridWorkers, "workers", 0, "parallel row workers (0 = all CPUs)")
	gridCmd.Flags().StringVar(&gridOut, "out", "", "output file (default stdout)")
	gridCmd.Flags().StringVar(&gridFormat, "format", "geojson", "output format (geojson, csv)")
	rootCmd.AddCommand(gridCmd)
}
