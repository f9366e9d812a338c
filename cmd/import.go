package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/fetcher"
	"github.com/terrastat/surfacer/internal/importer"
	"github.com/terrastat/surfacer/internal/model"
)

var (
	importName       string
	importFrom       string
	importLatCol     string
	importLonCol     string
	importValueCol   string
	importSheet      string
	importValueField string
	importLatin1     bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a sample dataset from a file or URL",
	Long:  "Parses CSV, XLSX, or point shapefile sources into a new dataset. Sources may be local paths or http/https/ftp URLs; ZIP archives are extracted first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, err := localizeSource(ctx, importFrom)
		if err != nil {
			return err
		}

		samples, err := parseSource(ctx, path)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return eris.Errorf("no samples found in %s", importFrom)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ds, err := st.CreateDataset(ctx, importName, importFrom)
		if err != nil {
			return eris.Wrap(err, "create dataset")
		}

		inserted, err := st.InsertSamples(ctx, ds.ID, samples)
		if err != nil {
			return eris.Wrap(err, "insert samples")
		}

		zap.L().Info("import complete",
			zap.String("dataset", ds.ID),
			zap.String("name", ds.Name),
			zap.String("source", importFrom),
			zap.Int64("samples", inserted),
		)
		return nil
	},
}

// localizeSource returns a local file path for the source, downloading remote
// URLs to a temp directory and extracting ZIP archives.
func localizeSource(ctx context.Context, src string) (string, error) {
	path := src

	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		var f fetcher.Fetcher
		switch u.Scheme {
		case "http", "https":
			f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Fetch.MaxRetries,
				RatePerSec: cfg.Fetch.RatePerSec,
			})
		case "ftp":
			f = fetcher.NewFTPFetcher(fetcher.FTPOptions{
				Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			})
		default:
			return "", eris.Errorf("unsupported URL scheme: %s", u.Scheme)
		}

		dir, err := os.MkdirTemp("", "surfacer-import-*")
		if err != nil {
			return "", eris.Wrap(err, "create temp dir")
		}
		path = filepath.Join(dir, filepath.Base(u.Path))

		n, err := f.DownloadToFile(ctx, src, path)
		if err != nil {
			return "", eris.Wrapf(err, "download %s", src)
		}
		zap.L().Info("downloaded source", zap.String("url", src), zap.Int64("bytes", n))
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		extracted, err := fetcher.ExtractZIP(path, filepath.Dir(path))
		if err != nil {
			return "", eris.Wrapf(err, "extract %s", path)
		}
		for _, ext := range []string{".shp", ".csv", ".xlsx"} {
			if p, ok := fetcher.FindByExt(extracted, ext); ok {
				return p, nil
			}
		}
		return "", eris.Errorf("no importable file inside %s", path)
	}

	return path, nil
}

// parseSource dispatches on file extension.
func parseSource(ctx context.Context, path string) ([]model.Sample, error) {
	opts := importer.Options{
		LatColumn:   importLatCol,
		LonColumn:   importLonCol,
		ValueColumn: importValueCol,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		var r io.Reader = f
		if importLatin1 {
			r = fetcher.Latin1Reader(f)
		}
		return importer.ParseCSV(ctx, r, opts)
	case ".xlsx":
		return importer.ParseXLSX(path, importSheet, opts)
	case ".shp":
		return importer.ParseShapefile(path, importValueField)
	default:
		return nil, eris.Errorf("unsupported source format: %s", filepath.Ext(path))
	}
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "dataset name (required)")
	importCmd.Flags().StringVar(&importFrom, "from", "", "file path or URL (required)")
	importCmd.Flags().StringVar(&importLatCol, "lat-col", "", "latitude column (default lat)")
	importCmd.Flags().StringVar(&importLonCol, "lon-col", "", "longitude column (default lon)")
	importCmd.Flags().StringVar(&importValueCol, "value-col", "", "value column (default value)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().StringVar(&importValueField, "value-field", "", "shapefile attribute field (default value)")
	importCmd.Flags().BoolVar(&importLatin1, "latin1", false, "decode CSV as ISO 8859-1")
	_ = importCmd.MarkFlagRequired("name")
	_ = importCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(importCmd)
}
