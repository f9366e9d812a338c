// Package store persists sample datasets behind a driver-switched interface
// with SQLite and PostGIS backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
)

// ErrNotFound is returned when a dataset lookup matches nothing.
var ErrNotFound = eris.New("store: not found")

// SampleFilter narrows ListSamples results.
type SampleFilter struct {
	BBox   *interp.BBox `json:"bbox,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// Store defines persistence for datasets and their samples.
type Store interface {
	// Datasets
	CreateDataset(ctx context.Context, name, source string) (*model.Dataset, error)
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	GetDatasetByName(ctx context.Context, name string) (*model.Dataset, error)
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error

	// Samples
	InsertSamples(ctx context.Context, datasetID string, samples []model.Sample) (int64, error)
	ListSamples(ctx context.Context, datasetID string, filter SampleFilter) ([]model.Sample, error)
	NearestSamples(ctx context.Context, datasetID string, lat, lon float64, k int) ([]model.Sample, error)
	CountSamples(ctx context.Context, datasetID string) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ResolveDataset finds a dataset by ID first, then by name.
func ResolveDataset(ctx context.Context, s Store, ref string) (*model.Dataset, error) {
	if ref == "" {
		return nil, eris.New("store: dataset reference is empty")
	}
	ds, err := s.GetDataset(ctx, ref)
	if err == nil {
		return ds, nil
	}
	if !eris.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.GetDatasetByName(ctx, ref)
}
