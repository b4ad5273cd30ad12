// Package aero implements the empirical power coefficient Cp(λ, β) of a rotor
// for a closed set of published parameter variants.
package aero

import (
	"fmt"
	"math"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Betz is the theoretical upper bound of Cp.
const Betz = 16.0 / 27.0

const (
	_lambdaMax  = 20.0
	_lambdaGrid = 0.01
)

// Model evaluates Cp against an injected coefficient table.
type Model struct {
	table Table
}

// NewModel copies the table; later changes to the caller's table do not leak in.
func NewModel(table Table) *Model { return &Model{table: table} }

// Default is a model over DefaultTable.
func Default() *Model { return NewModel(DefaultTable()) }

// Table returns a copy of the coefficients in use.
func (m *Model) Table() Table { return m.table }

// TipSpeedRatio is λ = ω·R / v. ω in rad/s, R in m, v in m/s.
func TipSpeedRatio(omega, radius, v float64) float64 {
	return util.SafeDiv(omega*radius, v)
}

// LambdaI is the intermediate tip-speed ratio λi. ok is false when the
// expression is singular or non-physical (λi <= 0).
func LambdaI(lambda, beta float64, c Coefficients) (li float64, ok bool) {
	a := lambda + c.C8*beta
	b := beta*beta*beta + 1
	if a == 0 || b == 0 {
		return 0, false
	}
	inv := 1/a - c.C9/b
	if inv == 0 || !util.Finite(inv) {
		return 0, false
	}
	li = 1 / inv
	if !(li > 0) || !util.Finite(li) {
		return 0, false
	}
	return li, true
}

// CoefficientOfPower returns Cp in [0, Betz] for tip-speed ratio λ and pitch
// β (degrees). λ = 0 gives 0; negative λ fails with ErrDomain.
func (m *Model) CoefficientOfPower(lambda, beta float64, v Variant) (float64, error) {
	c, err := m.table.Lookup(v)
	if err != nil {
		return 0, err
	}
	if !util.Finite(lambda) || lambda < 0 {
		return 0, fmt.Errorf("%w: tip-speed ratio %v", wind.ErrDomain, lambda)
	}
	if !util.Finite(beta) {
		return 0, fmt.Errorf("%w: pitch angle %v", wind.ErrDomain, beta)
	}
	if lambda == 0 {
		return 0, nil
	}
	return cp(lambda, beta, c), nil
}

func cp(lambda, beta float64, c Coefficients) float64 {
	li, ok := LambdaI(lambda, beta, c)
	if !ok {
		return 0
	}
	var shape float64
	if c.C4 != 0 {
		shape = c.C4 * math.Pow(beta, c.C5)
	}
	v := c.C1 * (c.C2/li - c.C3*beta - shape - c.C6) * math.Exp(-c.C7/li)
	return util.Clamp(v, 0, Betz)
}

// Optimum is the tip-speed ratio maximizing Cp at a fixed pitch.
type Optimum struct {
	Lambda float64 `json:"lambda_opt"`
	Cp     float64 `json:"cp_max"`
}

// OptimalTipSpeedRatio scans λ ∈ (0, 20] and refines around the best grid
// point with a golden-section search.
func (m *Model) OptimalTipSpeedRatio(v Variant, beta float64) (Optimum, error) {
	c, err := m.table.Lookup(v)
	if err != nil {
		return Optimum{}, err
	}

	best := Optimum{}
	for l := _lambdaGrid; l <= _lambdaMax+1e-9; l += _lambdaGrid {
		if p := cp(l, beta, c); p > best.Cp {
			best = Optimum{Lambda: l, Cp: p}
		}
	}
	if best.Cp == 0 {
		return Optimum{}, fmt.Errorf("%w: %s has no positive Cp at pitch %v°", wind.ErrDomain, v, beta)
	}

	lo := math.Max(best.Lambda-_lambdaGrid, 1e-6)
	hi := best.Lambda + _lambdaGrid
	const phi = 0.6180339887498949
	x1 := hi - phi*(hi-lo)
	x2 := lo + phi*(hi-lo)
	f1, f2 := cp(x1, beta, c), cp(x2, beta, c)
	for i := 0; i < 60 && hi-lo > 1e-9; i++ {
		if f1 < f2 {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + phi*(hi-lo)
			f2 = cp(x2, beta, c)
		} else {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - phi*(hi-lo)
			f1 = cp(x1, beta, c)
		}
	}
	l := 0.5 * (lo + hi)
	if p := cp(l, beta, c); p > best.Cp {
		best = Optimum{Lambda: l, Cp: p}
	}
	return best, nil
}

// Point is one row of a Cp(λ) table.
type Point struct {
	Lambda float64 `json:"lambda"`
	Cp     float64 `json:"cp"`
}

// Curve tabulates Cp over the given tip-speed ratios.
func (m *Model) Curve(v Variant, beta float64, lambdas []float64) ([]Point, error) {
	out := make([]Point, len(lambdas))
	for i, l := range lambdas {
		p, err := m.CoefficientOfPower(l, beta, v)
		if err != nil {
			return nil, err
		}
		out[i] = Point{Lambda: l, Cp: p}
	}
	return out, nil
}
