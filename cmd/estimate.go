package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
	"github.com/terrastat/surfacer/internal/store"
)

var (
	estimateDataset string
	estimateLat     float64
	estimateLon     float64
	estimateAlpha   float64
	estimateMetric  string
	estimateNearest int
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the value at a point",
	Long:  "Interpolates the value at a query point from a stored dataset using inverse distance weighting.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := store.ResolveDataset(ctx, st, estimateDataset)
		if err != nil {
			return eris.Wrap(err, "estimate")
		}

		q := interp.Point{Lat: estimateLat, Lon: estimateLon}

		samples, err := querySamples(ctx, st, ds.ID, q, estimateNearest)
		if err != nil {
			return eris.Wrap(err, "estimate")
		}

		metric, err := interp.MetricByName(estimateMetric)
		if err != nil {
			return err
		}

		value, err := interp.Estimate(q, model.InterpSamples(samples), estimateAlpha, metric)
		if err != nil {
			return eris.Wrap(err, "estimate")
		}

		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]any{
			"dataset":  ds.Name,
			"lat":      q.Lat,
			"lon":      q.Lon,
			"alpha":    estimateAlpha,
			"samples":  len(samples),
			"estimate": value,
		})
	},
}

// querySamples fetches the k nearest samples, or the whole dataset when k is zero.
func querySamples(ctx context.Context, st store.Store, datasetID string, q interp.Point, k int) ([]model.Sample, error) {
	if k > 0 {
		return st.NearestSamples(ctx, datasetID, q.Lat, q.Lon, k)
	}
	return st.ListSamples(ctx, datasetID, store.SampleFilter{})
}

func init() {
	estimateCmd.Flags().StringVar(&estimateDataset, "dataset", "", "dataset id or name (required)")
	estimateCmd.Flags().Float64Var(&estimateLat, "lat", 0, "query latitude")
	estimateCmd.Flags().Float64Var(&estimateLon, "lon", 0, "query longitude")
	estimateCmd.Flags().Float64Var(&estimateAlpha, "alpha", interp.DefaultAlpha, "distance decay exponent")
	estimateCmd.Flags().StringVar(&estimateMetric, "metric", "", "distance metric (euclidean, haversine)")
	estimateCmd.Flags().IntVar(&estimateNearest, "nearest", 0, "use only the k nearest samples (0 = all)")
	_ = estimateCmd.MarkFlagRequired("dataset")
	_ = estimateCmd.MarkFlagRequired("lat")
	_ = estimateCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(estimateCmd)
}
