package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/gen"
	"github.com/terrastat/surfacer/internal/interp"
)

var (
	genName  string
	genCount int
	genSeed  uint64
	genNoise float64
	genBBox  []float64
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic sample dataset",
	Long:  "Generates random sample points over a smooth synthetic field and stores them as a new dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		bbox, err := parseBBox(genBBox)
		if err != nil {
			return err
		}

		samples, err := gen.Generate(gen.Config{
			BBox:  bbox,
			Count: genCount,
			Seed:  genSeed,
			Noise: genNoise,
		})
		if err != nil {
			return eris.Wrap(err, "gen")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ds, err := st.CreateDataset(ctx, genName, "gen")
		if err != nil {
			return eris.Wrap(err, "create dataset")
		}

		inserted, err := st.InsertSamples(ctx, ds.ID, samples)
		if err != nil {
			return eris.Wrap(err, "insert samples")
		}

		zap.L().Info("dataset generated",
			zap.String("dataset", ds.ID),
			zap.String("name", ds.Name),
			zap.Int64("samples", inserted),
		)
		return nil
	},
}

// parseBBox converts a --bbox flag (min-lat,min-lon,max-lat,max-lon) to a box.
func parseBBox(vals []float64) (interp.BBox, error) {
	if len(vals) != 4 {
		return interp.BBox{}, eris.New("bbox needs exactly four values: min-lat,min-lon,max-lat,max-lon")
	}
	b := interp.BBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if !b.Valid() {
		return interp.BBox{}, eris.New("bbox has no extent")
	}
	return b, nil
}

func init() {
	genCmd.Flags().StringVar(&genName, "name", "", "dataset name (required)")
	genCmd.Flags().IntVar(&genCount, "count", 500, "number of samples")
	genCmd.Flags().Uint64Var(&genSeed, "seed", 1, "random seed")
	genCmd.Flags().Float64Var(&genNoise, "noise", 0.5, "uniform noise amplitude")
	genCmd.Flags().Float64SliceVar(&genBBox, "bbox", []float64{0, 0, 10, 10}, "extent as min-lat,min-lon,max-lat,max-lon")
	_ = genCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(genCmd)
}
