package turbulence

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

const (
	// LengthScaleFactor relates the turbulence length scale to height: L = 6.5·h.
	LengthScaleFactor = 6.5

	_m1 = 0.4
	_m2 = 0.25
)

// FilterState is the recursive state of the shaping filter.
type FilterState struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
}

// Filter is the discretized shaping filter
//
//	x[n+1] = [−a1 −a2; 1 0]·x[n] + [1 0]ᵀ·w[n]
//	y[n]   = K·(c1·x1[n] + c2·x2[n] + b0·w[n])
type Filter struct {
	a1, a2     float64
	b0, c1, c2 float64

	gain     float64
	variance float64    // unit-gain stationary output variance
	chol     [3]float64 // l00, l10, l11 of the stationary state covariance
	tau      float64    // T_F, s
	dt       float64    // s
}

// NewFilter builds the filter for mean speed v̄ (m/s) at height h (m) with
// turbulence coefficient kp, sampled every dt seconds.
func NewFilter(meanSpeed, height, kp, dt float64) (*Filter, error) {
	switch {
	case !(meanSpeed > 0) || !util.Finite(meanSpeed):
		return nil, fmt.Errorf("%w: mean speed %v m/s must be > 0", wind.ErrInvalidParameter, meanSpeed)
	case !(height > 0) || !util.Finite(height):
		return nil, fmt.Errorf("%w: height %v m must be > 0", wind.ErrInvalidParameter, height)
	case !(kp > 0) || !util.Finite(kp):
		return nil, fmt.Errorf("%w: turbulence coefficient %v must be > 0", wind.ErrInvalidParameter, kp)
	case !(dt > 0) || !util.Finite(dt):
		return nil, fmt.Errorf("%w: sampling interval %v s must be > 0", wind.ErrInvalidParameter, dt)
	}

	tau := LengthScaleFactor * height / meanSpeed
	f := &Filter{tau: tau, dt: dt}

	// bilinear transform, s = (2/dt)·(1 − z⁻¹)/(1 + z⁻¹)
	alpha := 2 / dt
	p := _m1 * tau * alpha
	q1 := tau * alpha
	q2 := _m2 * tau * alpha
	d0 := (1 + q1) * (1 + q2)

	f.a1 = (2 - 2*q1*q2) / d0
	f.a2 = (1 - q1) * (1 - q2) / d0
	f.b0 = (1 + p) / d0
	b1 := 2 / d0
	b2 := (1 - p) / d0
	f.c1 = b1 - f.b0*f.a1
	f.c2 = b2 - f.b0*f.a2

	cov, err := f.stationaryCovariance()
	if err != nil {
		return nil, err
	}
	f.variance = f.c1*f.c1*cov.At(0, 0) + 2*f.c1*f.c2*cov.At(0, 1) + f.c2*f.c2*cov.At(1, 1) + f.b0*f.b0
	if !(f.variance > 0) {
		return nil, fmt.Errorf("%w: degenerate filter variance %v", wind.ErrInvalidParameter, f.variance)
	}
	f.gain = kp * meanSpeed / math.Sqrt(f.variance)

	var ch mat.Cholesky
	if ch.Factorize(cov) {
		var l mat.TriDense
		ch.LTo(&l)
		f.chol = [3]float64{l.At(0, 0), l.At(1, 0), l.At(1, 1)}
	}
	return f, nil
}

// stationaryCovariance solves P = A·P·Aᵀ + B·Bᵀ through
// (I − A⊗A)·vec(P) = vec(B·Bᵀ).
func (f *Filter) stationaryCovariance() (*mat.SymDense, error) {
	a := mat.NewDense(2, 2, []float64{-f.a1, -f.a2, 1, 0})

	var kron mat.Dense
	kron.Kronecker(a, a)

	var lhs mat.Dense
	lhs.Sub(mat.NewDiagDense(4, []float64{1, 1, 1, 1}), &kron)

	var vecP mat.VecDense
	if err := vecP.SolveVec(&lhs, mat.NewVecDense(4, []float64{1, 0, 0, 0})); err != nil {
		return nil, fmt.Errorf("%w: stationary covariance: %v", wind.ErrInvalidParameter, err)
	}
	off := 0.5 * (vecP.AtVec(1) + vecP.AtVec(2))
	return mat.NewSymDense(2, []float64{vecP.AtVec(0), off, off, vecP.AtVec(3)}), nil
}

// Step feeds one white-noise sample and returns the filter output; s is advanced.
func (f *Filter) Step(s *FilterState, w float64) float64 {
	y := f.c1*s.X1 + f.c2*s.X2 + f.b0*w
	s.X1, s.X2 = -f.a1*s.X1-f.a2*s.X2+w, s.X1
	return f.gain * y
}

// Stationary draws a state from the filter's stationary distribution.
func (f *Filter) Stationary(rng *rand.Rand) FilterState {
	z1, z2 := rng.NormFloat64(), rng.NormFloat64()
	return FilterState{
		X1: f.chol[0] * z1,
		X2: f.chol[1]*z1 + f.chol[2]*z2,
	}
}

// StdDev is the stationary standard deviation of the output, K_p·v̄.
func (f *Filter) StdDev() float64 { return f.gain * math.Sqrt(f.variance) }

// Gain is K_F.
func (f *Filter) Gain() float64 { return f.gain }

// TimeConstant is T_F = 6.5·h / v̄ in seconds.
func (f *Filter) TimeConstant() float64 { return f.tau }

// Interval is the sampling interval in seconds.
func (f *Filter) Interval() float64 { return f.dt }
