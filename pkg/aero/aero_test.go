package aero

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/windpower/pkg/wind"
)

func TestCoefficientOfPower_Bounded(t *testing.T) {
	m := Default()
	for _, v := range Variants() {
		for _, beta := range []float64{-5, -1, 0, 2, 5, 10, 20, 45} {
			for l := 0.0; l <= 25; l += 0.05 {
				p, err := m.CoefficientOfPower(l, beta, v)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p, 0.0, "variant=%s beta=%v lambda=%v", v, beta, l)
				assert.LessOrEqual(t, p, 0.593, "variant=%s beta=%v lambda=%v", v, beta, l)
			}
		}
	}
}

func TestCoefficientOfPower_ZeroLambda(t *testing.T) {
	m := Default()
	for _, v := range Variants() {
		p, err := m.CoefficientOfPower(0, 0, v)
		require.NoError(t, err)
		assert.Equal(t, 0.0, p)
	}
}

func TestCoefficientOfPower_HeierFormula(t *testing.T) {
	m := Default()
	lambda := 6.0
	inv := 1/lambda - 0.035
	want := 0.5 * (116*inv - 5) * math.Exp(-21*inv)

	got, err := m.CoefficientOfPower(lambda, 0, Heier)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 0.3235, got, 1e-3)
}

func TestCoefficientOfPower_PitchReducesCp(t *testing.T) {
	m := Default()
	p0, err := m.CoefficientOfPower(8, 0, Heier)
	require.NoError(t, err)
	p5, err := m.CoefficientOfPower(8, 5, Heier)
	require.NoError(t, err)
	assert.Less(t, p5, p0)
}

func TestCoefficientOfPower_Errors(t *testing.T) {
	m := Default()

	_, err := m.CoefficientOfPower(5, 0, Variant(42))
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))

	_, err = m.CoefficientOfPower(-1, 0, Heier)
	assert.True(t, errors.Is(err, wind.ErrDomain))

	_, err = m.CoefficientOfPower(math.NaN(), 0, Heier)
	assert.True(t, errors.Is(err, wind.ErrDomain))
}

func TestLambdaI_Singular(t *testing.T) {
	c := DefaultTable()[Heier]

	// β³ + 1 = 0
	_, ok := LambdaI(5, -1, c)
	assert.False(t, ok)

	// λ + c8·β = 0
	_, ok = LambdaI(c.C8*10, -10, c)
	assert.False(t, ok)

	li, ok := LambdaI(6, 0, c)
	require.True(t, ok)
	assert.InDelta(t, 1/(1.0/6-0.035), li, 1e-12)
}

func TestOptimalTipSpeedRatio_Heier(t *testing.T) {
	opt, err := Default().OptimalTipSpeedRatio(Heier, 0)
	require.NoError(t, err)
	t.Logf("heier: lambda_opt=%.4f cp_max=%.4f", opt.Lambda, opt.Cp)

	// d/dx [(116x-5)e^{-21x}] = 0  ->  x = 0.09072, λ = 1/(x+0.035)
	assert.InDelta(t, 7.954, opt.Lambda, 0.01)
	assert.InDelta(t, 0.4109, opt.Cp, 1e-3)
}

func TestOptimalTipSpeedRatio_AllVariants(t *testing.T) {
	m := Default()
	for _, v := range Variants() {
		opt, err := m.OptimalTipSpeedRatio(v, 0)
		require.NoError(t, err, "variant=%s", v)
		assert.Greater(t, opt.Lambda, 0.0)
		assert.Greater(t, opt.Cp, 0.3, "variant=%s", v)
		assert.LessOrEqual(t, opt.Cp, Betz)

		// no grid point beats the optimum
		for l := 0.5; l <= 20; l += 0.5 {
			p, err := m.CoefficientOfPower(l, 0, v)
			require.NoError(t, err)
			assert.LessOrEqual(t, p, opt.Cp+1e-12, "variant=%s lambda=%v", v, l)
		}
	}
}

func TestModel_TableIsInjectedByValue(t *testing.T) {
	tab := DefaultTable()
	m := NewModel(tab)
	tab[Heier].C1 = 0

	p, err := m.CoefficientOfPower(8, 0, Heier)
	require.NoError(t, err)
	assert.Greater(t, p, 0.0)

	custom := NewModel(tab)
	p, err = custom.CoefficientOfPower(8, 0, Heier)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestCurve(t *testing.T) {
	pts, err := Default().Curve(VariableSpeed, 0, []float64{0, 4, 8, 12})
	require.NoError(t, err)
	require.Len(t, pts, 4)
	assert.Equal(t, 0.0, pts[0].Cp)
	assert.Greater(t, pts[2].Cp, pts[1].Cp)

	_, err = Default().Curve(VariableSpeed, 0, []float64{1, -2})
	assert.True(t, errors.Is(err, wind.ErrDomain))
}

func TestTipSpeedRatio(t *testing.T) {
	assert.InDelta(t, 7.0, TipSpeedRatio(3.5, 20, 10), 1e-12)
	assert.Equal(t, 0.0, TipSpeedRatio(3.5, 20, 0))
}
