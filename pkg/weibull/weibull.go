// Package weibull characterizes a wind-speed sample by a two-parameter
// Weibull distribution fitted with the method of moments.
//
// The shape k is the root of
//
//	Γ(1+2/k) / Γ(1+1/k)² − 1 = (σ/μ)²
//
// and the scale follows as c = μ / Γ(1+1/k). The left side is strictly
// decreasing in k, so the root is bracketed and found by bisection on ln k.
package weibull

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

const (
	_minShape   = 0.1
	_maxShape   = 100.0
	_bisectIter = 200
	_bisectTol  = 1e-12
)

// Distribution is a fitted Weibull law.
// Units:
//   - Shape: k, dimensionless, > 0
//   - Scale: c, m/s, > 0
type Distribution struct {
	Shape float64 `json:"shape_k"`
	Scale float64 `json:"scale_c"`
}

// New validates explicit parameters.
func New(shape, scale float64) (Distribution, error) {
	if !(shape > 0) || !(scale > 0) || !util.Finite(shape) || !util.Finite(scale) {
		return Distribution{}, fmt.Errorf("%w: weibull k=%v c=%v", wind.ErrInvalidParameter, shape, scale)
	}
	return Distribution{Shape: shape, Scale: scale}, nil
}

func (d Distribution) law() distuv.Weibull {
	return distuv.Weibull{K: d.Shape, Lambda: d.Scale}
}

// PDF is the probability density at speed v; 0 for v < 0.
func (d Distribution) PDF(v float64) float64 {
	if v < 0 {
		return 0
	}
	return d.law().Prob(v)
}

// CDF is P(V <= v); 0 for v < 0.
func (d Distribution) CDF(v float64) float64 {
	if v < 0 {
		return 0
	}
	return d.law().CDF(v)
}

// Quantile is the inverse CDF; p is clamped to [0,1].
func (d Distribution) Quantile(p float64) float64 { return d.law().Quantile(util.Clamp01(p)) }

func (d Distribution) Mean() float64   { return d.law().Mean() }
func (d Distribution) StdDev() float64 { return d.law().StdDev() }

// Fit estimates k and c from a speed sample.
func Fit(samples []float64) (Distribution, error) {
	if len(samples) < 2 {
		return Distribution{}, fmt.Errorf("%w: need at least 2 samples, got %d", wind.ErrInsufficientData, len(samples))
	}
	for i, v := range samples {
		if !util.Finite(v) || v < 0 {
			return Distribution{}, fmt.Errorf("%w: sample %d is %v", wind.ErrDomain, i, v)
		}
	}

	mean, variance := stat.MeanVariance(samples, nil)
	if !(variance > 0) || !(mean > 0) {
		return Distribution{}, fmt.Errorf("%w: zero variance over %d samples", wind.ErrInsufficientData, len(samples))
	}

	k := ShapeFromCV(math.Sqrt(variance) / mean)
	c := mean / math.Gamma(1+1/k)
	return Distribution{Shape: k, Scale: c}, nil
}

// ShapeFromCV solves the moment relation for k given the coefficient of
// variation σ/μ. Outside the bracket the empirical estimate (σ/μ)^-1.086 is used.
func ShapeFromCV(cv float64) float64 {
	target := cv * cv
	if target >= cv2(_minShape) {
		return _minShape
	}
	if target <= cv2(_maxShape) {
		return math.Pow(cv, -1.086)
	}

	lo, hi := math.Log(_minShape), math.Log(_maxShape)
	for i := 0; i < _bisectIter && hi-lo > _bisectTol; i++ {
		mid := 0.5 * (lo + hi)
		// cv2 decreases with k
		if cv2(math.Exp(mid)) > target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Exp(0.5 * (lo + hi))
}

// cv2 is the squared coefficient of variation of a Weibull law with shape k.
func cv2(k float64) float64 {
	l2, _ := math.Lgamma(1 + 2/k)
	l1, _ := math.Lgamma(1 + 1/k)
	return math.Exp(l2-2*l1) - 1
}
