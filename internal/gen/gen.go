// Package gen produces synthetic sample datasets for demos and testing.
package gen

import (
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
)

// Hill is one gaussian bump contributing to the synthetic field.
type Hill struct {
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	Amp    float64 `yaml:"amp"`
	Spread float64 `yaml:"spread"` // standard deviation in degrees
}

// Config drives Generate.
type Config struct {
	BBox  interp.BBox
	Count int
	Seed  uint64 // same seed, same dataset
	Hills []Hill // defaults derived from the bbox when empty
	Noise float64
}

// Generate returns Count samples placed uniformly at random inside the bbox.
// Values come from a smooth sum-of-gaussians field plus uniform noise, so
// interpolated surfaces over the output look plausible rather than random.
func Generate(cfg Config) ([]model.Sample, error) {
	if cfg.Count <= 0 {
		return nil, eris.New("gen: count must be positive")
	}
	if !cfg.BBox.Valid() {
		return nil, eris.New("gen: bbox has no extent")
	}

	hills := cfg.Hills
	if len(hills) == 0 {
		hills = defaultHills(cfg.BBox)
	}

	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	latSpan := cfg.BBox.MaxLat - cfg.BBox.MinLat
	lonSpan := cfg.BBox.MaxLon - cfg.BBox.MinLon

	samples := make([]model.Sample, cfg.Count)
	for i := range samples {
		p := interp.Point{
			Lat: cfg.BBox.MinLat + r.Float64()*latSpan,
			Lon: cfg.BBox.MinLon + r.Float64()*lonSpan,
		}
		v := fieldValue(hills, p)
		if cfg.Noise > 0 {
			v += (r.Float64()*2 - 1) * cfg.Noise
		}
		samples[i] = model.Sample{Lat: p.Lat, Lon: p.Lon, Value: v}
	}
	return samples, nil
}

// defaultHills places two bumps on the thirds of the box diagonal.
func defaultHills(b interp.BBox) []Hill {
	latSpan := b.MaxLat - b.MinLat
	lonSpan := b.MaxLon - b.MinLon
	spread := math.Max(latSpan, lonSpan) / 4
	return []Hill{
		{Lat: b.MinLat + latSpan/3, Lon: b.MinLon + lonSpan/3, Amp: 100, Spread: spread},
		{Lat: b.MinLat + 2*latSpan/3, Lon: b.MinLon + 2*lonSpan/3, Amp: 60, Spread: spread / 2},
	}
}

func fieldValue(hills []Hill, p interp.Point) float64 {
	var v float64
	for _, h := range hills {
		dLat := p.Lat - h.Lat
		dLon := p.Lon - h.Lon
		d2 := dLat*dLat + dLon*dLon
		v += h.Amp * math.Exp(-d2/(2*h.Spread*h.Spread))
	}
	return v
}
