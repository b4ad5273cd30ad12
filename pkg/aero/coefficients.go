package aero

import (
	"fmt"

	"github.com/ja7ad/windpower/pkg/wind"
)

// Coefficients are the nine constants of
//
//	1/λi = 1/(λ + c8·β) − c9/(β³ + 1)
//	Cp   = c1·(c2/λi − c3·β − c4·β^c5 − c6)·exp(−c7/λi)
type Coefficients struct {
	C1, C2, C3, C4, C5, C6, C7, C8, C9 float64
}

// Table maps every Variant to its coefficients. It is a value type: copies
// are independent, and Model keeps its own copy.
type Table [variantCount]Coefficients

// DefaultTable returns the literature parameter sets.
func DefaultTable() Table {
	return Table{
		Heier:         {C1: 0.5, C2: 116, C3: 0.4, C4: 0, C5: 0, C6: 5, C7: 21, C8: 0.08, C9: 0.035},
		Raiambal:      {C1: 0.5, C2: 116, C3: 0.4, C4: 0, C5: 0, C6: 5, C7: 16.5, C8: 0.089, C9: 0.035},
		FixedSpeed:    {C1: 0.44, C2: 125, C3: 0, C4: 0, C5: 0, C6: 6.94, C7: 16.5, C8: 0, C9: -0.002},
		VariableSpeed: {C1: 0.73, C2: 151, C3: 0.58, C4: 0.002, C5: 2.14, C6: 13.2, C7: 18.4, C8: -0.02, C9: -0.003},
	}
}

// Lookup returns the coefficients of v or ErrUnknownModel.
func (t Table) Lookup(v Variant) (Coefficients, error) {
	if !v.Valid() {
		return Coefficients{}, fmt.Errorf("%w: efficiency variant %d", wind.ErrUnknownModel, int(v))
	}
	return t[v], nil
}
