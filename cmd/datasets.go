package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/export"
	"github.com/terrastat/surfacer/internal/model"
	"github.com/terrastat/surfacer/internal/store"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage stored sample datasets",
	Long:  "Commands for listing, deleting, and exporting sample datasets.",
}

// -- datasets list --

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		datasets, err := st.ListDatasets(ctx)
		if err != nil {
			return eris.Wrap(err, "datasets list")
		}

		if len(datasets) == 0 {
			fmt.Fprintln(os.Stderr, "No datasets found.")
			return nil
		}

		formatDatasetsList(os.Stdout, datasets)
		return nil
	},
}

// -- datasets delete --

var datasetsDeleteCmd = &cobra.Command{
	Use:   "delete <dataset>",
	Short: "Delete a dataset and all its samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := store.ResolveDataset(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "datasets delete")
		}

		if err := st.DeleteDataset(ctx, ds.ID); err != nil {
			return eris.Wrap(err, "datasets delete")
		}

		zap.L().Info("dataset deleted",
			zap.String("dataset", ds.ID),
			zap.String("name", ds.Name),
		)
		return nil
	},
}

// -- datasets export --

var datasetsExportOut string

var datasetsExportCmd = &cobra.Command{
	Use:   "export <dataset>",
	Short: "Export a dataset as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ds, err := store.ResolveDataset(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "datasets export")
		}

		samples, err := st.ListSamples(ctx, ds.ID, store.SampleFilter{})
		if err != nil {
			return eris.Wrap(err, "datasets export")
		}

		out := os.Stdout
		if datasetsExportOut != "" {
			f, err := os.Create(datasetsExportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", datasetsExportOut)
			}
			defer f.Close()
			out = f
		}

		fc := export.SamplesFeatureCollection(samples)
		if err := export.WriteGeoJSON(out, fc); err != nil {
			return eris.Wrap(err, "datasets export")
		}

		zap.L().Info("dataset exported",
			zap.String("dataset", ds.ID),
			zap.Int("samples", len(samples)),
		)
		return nil
	},
}

func init() {
	datasetsExportCmd.Flags().StringVar(&datasetsExportOut, "out", "", "output file (default stdout)")

	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsDeleteCmd)
	datasetsCmd.AddCommand(datasetsExportCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// formatDatasetsList writes a tabular list of datasets to w.
func formatDatasetsList(out io.Writer, datasets []model.Dataset) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSOURCE\tSAMPLES\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t-------")

	for _, d := range datasets {
		source := d.Source
		if len(source) > 40 {
			source = source[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			truncateID(d.ID),
			d.Name,
			source,
			d.SampleCount,
			d.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
