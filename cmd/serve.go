package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/config"
	"github.com/terrastat/surfacer/internal/export"
	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
	"github.com/terrastat/surfacer/internal/store"
	"github.com/terrastat/surfacer/internal/surface"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP estimation API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, cfg.Interp),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the API routes over the given store.
func newRouter(st store.Store, defaults config.InterpConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/datasets", func(w http.ResponseWriter, req *http.Request) {
			datasets, err := st.ListDatasets(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
		})

		r.Post("/estimate", handleEstimate(st, defaults))
		r.Post("/grid", handleGrid(st, defaults))
	})

	return r
}

type estimateRequest struct {
	Dataset string          `json:"dataset"`
	Samples []interp.Sample `json:"samples"` // inline alternative to dataset
	Lat     float64         `json:"lat"`
	Lon     float64         `json:"lon"`
	Alpha   float64         `json:"alpha,omitempty"`
	Metric  string          `json:"metric,omitempty"`
	Nearest int             `json:"nearest,omitempty"`
}

func handleEstimate(st store.Store, defaults config.InterpConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body estimateRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		if body.Dataset == "" && len(body.Samples) == 0 {
			writeError(w, http.StatusBadRequest, eris.New("dataset or samples is required"))
			return
		}
		if body.Alpha == 0 {
			body.Alpha = defaults.Alpha
		}
		if body.Metric == "" {
			body.Metric = defaults.Metric
		}
		if body.Nearest == 0 {
			body.Nearest = defaults.Nearest
		}

		q := interp.Point{Lat: body.Lat, Lon: body.Lon}

		name := "inline"
		samples := body.Samples
		if body.Dataset != "" {
			ds, err := store.ResolveDataset(ctx, st, body.Dataset)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			name = ds.Name

			stored, err := querySamples(ctx, st, ds.ID, q, body.Nearest)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			samples = model.InterpSamples(stored)
		}

		metric, err := interp.MetricByName(body.Metric)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		value, err := interp.Estimate(q, samples, body.Alpha, metric)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"dataset":  name,
			"lat":      q.Lat,
			"lon":      q.Lon,
			"alpha":    body.Alpha,
			"samples":  len(samples),
			"estimate": value,
		})
	}
}

type gridRequest struct {
	Dataset string  `json:"dataset"`
	MinLat  float64 `json:"min_lat"`
	MinLon  float64 `json:"min_lon"`
	MaxLat  float64 `json:"max_lat"`
	MaxLon  float64 `json:"max_lon"`
	CellDeg float64 `json:"cell_deg"`
	Alpha   float64 `json:"alpha,omitempty"`
	Metric  string  `json:"metric,omitempty"`
}

func handleGrid(st store.Store, defaults config.InterpConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body gridRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		if body.Alpha == 0 {
			body.Alpha = defaults.Alpha
		}
		if body.Metric == "" {
			body.Metric = defaults.Metric
		}

		job := surface.Job{
			Dataset: body.Dataset,
			MinLat:  body.MinLat,
			MinLon:  body.MinLon,
			MaxLat:  body.MaxLat,
			MaxLon:  body.MaxLon,
			CellDeg: body.CellDeg,
			Alpha:   body.Alpha,
			Metric:  body.Metric,
			Format:  "geojson",
		}
		if err := job.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ds, err := store.ResolveDataset(ctx, st, job.Dataset)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		samples, err := st.ListSamples(ctx, ds.ID, store.SampleFilter{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		metric, err := interp.MetricByName(job.Metric)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		res, err := interp.EvaluateGrid(ctx, job.Grid(), model.InterpSamples(samples), job.Alpha, metric, defaults.GridWorkers)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		writeJSON(w, http.StatusOK, export.GridFeatureCollection(res))
	}
}

func statusFor(err error) int {
	if eris.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
