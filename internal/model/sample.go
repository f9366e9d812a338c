// Package model defines the persisted entities shared across the CLI.
package model

import (
	"time"

	"github.com/terrastat/surfacer/internal/interp"
)

// Dataset is a named collection of samples loaded from one source.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"` // e.g. file path, URL, "gen"
	SampleCount int64     `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sample is a stored observation: a location and a scalar value.
type Sample struct {
	ID        string    `json:"id"`
	DatasetID string    `json:"dataset_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Interp converts the stored sample to its estimator representation.
func (s Sample) Interp() interp.Sample {
	return interp.Sample{
		Point: interp.Point{Lat: s.Lat, Lon: s.Lon},
		Value: s.Value,
	}
}

// InterpSamples converts a stored slice for estimation, preserving order.
func InterpSamples(samples []Sample) []interp.Sample {
	out := make([]interp.Sample, len(samples))
	for i, s := range samples {
		out[i] = s.Interp()
	}
	return out
}
