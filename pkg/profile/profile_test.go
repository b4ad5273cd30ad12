package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/windpower/pkg/wind"
)

var trees = wind.Terrain{Exponent: 0.22, RoughnessLength: 0.25, TurbulenceCoefficient: 0.263}

func TestExtrapolate_PowerLawReference(t *testing.T) {
	v, err := Extrapolate(2.7, 10, 100, PowerLaw, trees)
	require.NoError(t, err)
	assert.InDelta(t, 4.48, v, 0.005)
	t.Logf("2.7 m/s @ 10 m -> %.4f m/s @ 100 m (n=0.22)", v)
}

func TestExtrapolate_LogLawReference(t *testing.T) {
	v, err := Extrapolate(2.7, 10, 100, Logarithmic, trees)
	require.NoError(t, err)
	want := 2.7 * math.Log(100/0.25) / math.Log(10/0.25)
	assert.InDelta(t, want, v, 1e-12)
	assert.InDelta(t, 4.3853, v, 1e-3)
}

func TestExtrapolate_IdentityAtReferenceHeight(t *testing.T) {
	for _, m := range []Model{PowerLaw, Logarithmic} {
		v, err := Extrapolate(6.3, 40, 40, m, trees)
		require.NoError(t, err)
		assert.InDelta(t, 6.3, v, 1e-12, "model=%s", m)
	}
}

func TestExtrapolate_MonotonicInHeight(t *testing.T) {
	heights, err := Heights(1, 200, 1)
	require.NoError(t, err)

	for _, m := range []Model{PowerLaw, Logarithmic} {
		prev := -1.0
		for _, h := range heights {
			v, err := Extrapolate(5, 10, h, m, trees)
			require.NoError(t, err)
			assert.Greater(t, v, prev, "model=%s h=%v", m, h)
			prev = v
		}
	}
}

func TestExtrapolate_ZeroSpeedStaysZero(t *testing.T) {
	for _, m := range []Model{PowerLaw, Logarithmic} {
		v, err := Extrapolate(0, 10, 80, m, trees)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	}
}

func TestExtrapolate_DomainErrors(t *testing.T) {
	cases := []struct {
		name        string
		vRef, hRef  float64
		h           float64
		model       Model
		terrain     wind.Terrain
		wantUnknown bool
	}{
		{name: "log law at roughness length", vRef: 5, hRef: 10, h: 0.25, model: Logarithmic, terrain: trees},
		{name: "log law below roughness length", vRef: 5, hRef: 10, h: 0.1, model: Logarithmic, terrain: trees},
		{name: "log law ref below roughness length", vRef: 5, hRef: 0.2, h: 10, model: Logarithmic, terrain: trees},
		{name: "zero target height", vRef: 5, hRef: 10, h: 0, model: PowerLaw, terrain: trees},
		{name: "negative reference height", vRef: 5, hRef: -10, h: 20, model: PowerLaw, terrain: trees},
		{name: "negative speed", vRef: -1, hRef: 10, h: 20, model: PowerLaw, terrain: trees},
		{name: "exponent out of range", vRef: 5, hRef: 10, h: 20, model: PowerLaw, terrain: wind.Terrain{Exponent: 1.2}},
		{name: "unknown model", vRef: 5, hRef: 10, h: 20, model: Model(9), terrain: trees, wantUnknown: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extrapolate(tc.vRef, tc.hRef, tc.h, tc.model, tc.terrain)
			require.Error(t, err)
			if tc.wantUnknown {
				assert.True(t, errors.Is(err, wind.ErrUnknownModel), err.Error())
			} else {
				assert.True(t, errors.Is(err, wind.ErrDomain), err.Error())
			}
		})
	}
}

func TestProfile_FailsAsAWhole(t *testing.T) {
	pts, err := Profile(5, 10, []float64{20, 50, 0.1, 100}, Logarithmic, trees)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrDomain))
	assert.Nil(t, pts)
}

func TestProfile_Batch(t *testing.T) {
	heights := []float64{10, 50, 100, 150}
	pts, err := Profile(2.7, 10, heights, PowerLaw, trees)
	require.NoError(t, err)
	require.Len(t, pts, len(heights))
	for i, p := range pts {
		assert.Equal(t, heights[i], p.Height)
		single, err := Extrapolate(2.7, 10, heights[i], PowerLaw, trees)
		require.NoError(t, err)
		assert.Equal(t, single, p.Speed)
	}
}

func TestHeights(t *testing.T) {
	hs, err := Heights(10, 150, 10)
	require.NoError(t, err)
	require.Len(t, hs, 15)
	assert.Equal(t, 10.0, hs[0])
	assert.InDelta(t, 150.0, hs[len(hs)-1], 1e-9)

	hs, err = Heights(1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, hs)

	_, err = Heights(0, 10, 1)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))
	_, err = Heights(1, 10, 0)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("Power_Law")
	require.NoError(t, err)
	assert.Equal(t, PowerLaw, m)

	m, err = ParseModel("log")
	require.NoError(t, err)
	assert.Equal(t, Logarithmic, m)

	_, err = ParseModel("cubic")
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))

	var mm Model
	require.NoError(t, mm.UnmarshalText([]byte("logarithmic")))
	assert.Equal(t, Logarithmic, mm)
	b, err := mm.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "logarithmic", string(b))
}
