package interp

import (
	"math"

	"github.com/rotisserie/eris"
)

// Invalid-input sentinels. Callers match these with eris.Is.
var (
	// ErrNoSamples is returned when the sample set is empty.
	ErrNoSamples = eris.New("interp: sample set is empty")
	// ErrAlpha is returned when the power parameter is zero or negative.
	// Callers wanting an unweighted mean should compute one directly.
	ErrAlpha = eris.New("interp: alpha must be positive")
)

// DefaultAlpha is the conventional IDW power parameter.
const DefaultAlpha = 2.0

// Estimate computes the IDW estimate at q from the given samples.
//
// Each sample contributes its value weighted by distance^-alpha. If q
// coincides exactly with a sample location, that sample's value is returned
// as-is; ties at zero distance resolve to the first such sample in input
// order. The result is a convex combination of the sample values, so it
// always lies within their min/max range.
//
// Metric errors are returned to the caller unwrapped.
func Estimate(q Point, samples []Sample, alpha float64, dist Metric) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if alpha <= 0 {
		return 0, ErrAlpha
	}
	if dist == nil {
		dist = Euclidean
	}

	// Distances come first so zero-distance matches and metric errors
	// short-circuit in input order.
	dists := make([]float64, len(samples))
	dmin := math.Inf(1)
	for i, s := range samples {
		d, err := dist(q, s.Point)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return s.Value, nil
		}
		dists[i] = d
		if d < dmin {
			dmin = d
		}
	}

	// The weight is (dmin/d)^alpha rather than d^-alpha; the common dmin^alpha
	// factor cancels in the quotient, and a ratio never exceeding 1 keeps
	// tiny distances from overflowing the weight to +Inf.
	var num, den float64
	for i, s := range samples {
		w := math.Pow(dmin/dists[i], alpha)
		num += s.Value * w
		den += w
	}
	return num / den, nil
}

// Estimator bundles a power parameter and metric so call sites configured
// once (CLI flags, job files, HTTP requests) can estimate repeatedly.
// The zero value is not usable; construct with New.
type Estimator struct {
	alpha float64
	dist  Metric
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithMetric sets the distance metric. Default is Euclidean.
func WithMetric(m Metric) Option {
	return func(e *Estimator) {
		e.dist = m
	}
}

// New creates an Estimator with the given power parameter.
// Alpha validation is deferred to the estimation call so that construction
// from user input never fails silently.
func New(alpha float64, opts ...Option) *Estimator {
	e := &Estimator{alpha: alpha, dist: Euclidean}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Alpha returns the configured power parameter.
func (e *Estimator) Alpha() float64 { return e.alpha }

// EstimateAt computes the IDW estimate at q.
func (e *Estimator) EstimateAt(q Point, samples []Sample) (float64, error) {
	return Estimate(q, samples, e.alpha, e.dist)
}
