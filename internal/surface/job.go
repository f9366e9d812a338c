// Package surface defines the YAML job file that drives grid evaluations.
package surface

import (
	"os"
	"runtime"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/terrastat/surfacer/internal/interp"
)

// Job describes one grid evaluation: which dataset, where, and how.
type Job struct {
	Dataset string  `yaml:"dataset"` // dataset id or name
	MinLat  float64 `yaml:"min_lat"`
	MinLon  float64 `yaml:"min_lon"`
	MaxLat  float64 `yaml:"max_lat"`
	MaxLon  float64 `yaml:"max_lon"`
	CellDeg float64 `yaml:"cell_deg"`
	Alpha   float64 `yaml:"alpha"`
	Metric  string  `yaml:"metric"`
	Workers int     `yaml:"workers"`
	Output  string  `yaml:"output"`
	Format  string  `yaml:"format"` // "geojson" or "csv"
}

// Load reads a job file and applies defaults.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "surface: read job %s", path)
	}

	var wrapper struct {
		Surface Job `yaml:"surface"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "surface: parse job %s", path)
	}

	job := wrapper.Surface
	job.applyDefaults()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Job) applyDefaults() {
	if j.Alpha == 0 {
		j.Alpha = interp.DefaultAlpha
	}
	if j.Metric == "" {
		j.Metric = "euclidean"
	}
	if j.Workers <= 0 {
		j.Workers = runtime.NumCPU()
	}
	if j.Format == "" {
		j.Format = "geojson"
	}
}

// Validate checks the job is runnable.
func (j *Job) Validate() error {
	if j.Dataset == "" {
		return eris.New("surface: job needs a dataset")
	}
	if !j.BBox().Valid() {
		return eris.New("surface: job bbox has no extent")
	}
	if j.CellDeg <= 0 {
		return eris.New("surface: cell_deg must be positive")
	}
	if j.Alpha <= 0 {
		return eris.New("surface: alpha must be positive")
	}
	if _, err := interp.MetricByName(j.Metric); err != nil {
		return err
	}
	if j.Format != "geojson" && j.Format != "csv" {
		return eris.Errorf("surface: unknown output format %q", j.Format)
	}
	return nil
}

// BBox returns the job extent.
func (j *Job) BBox() interp.BBox {
	return interp.BBox{MinLat: j.MinLat, MinLon: j.MinLon, MaxLat: j.MaxLat, MaxLon: j.MaxLon}
}

// Grid returns the evaluation grid.
func (j *Job) Grid() interp.Grid {
	return interp.Grid{BBox: j.BBox(), CellDeg: j.CellDeg}
}
