package wind

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTerrains_Ordering(t *testing.T) {
	tab := DefaultTerrains()
	require.Equal(t, 7, tab.Len())

	classes := tab.Classes()
	assert.Equal(t, Coastal, classes[0])
	assert.Equal(t, Urban, classes[len(classes)-1])

	// roughness, exponent and turbulence all grow together
	var prev Terrain
	for i, c := range classes {
		row, err := tab.Lookup(c)
		require.NoError(t, err)
		require.NoError(t, row.Validate())
		if i > 0 {
			assert.Greater(t, row.RoughnessLength, prev.RoughnessLength, "class=%s", c)
			assert.Greater(t, row.Exponent, prev.Exponent, "class=%s", c)
			assert.Greater(t, row.TurbulenceCoefficient, prev.TurbulenceCoefficient, "class=%s", c)
		}
		prev = row
	}
}

func TestDefaultTerrains_Endpoints(t *testing.T) {
	tab := DefaultTerrains()

	coastal, err := tab.Lookup(Coastal)
	require.NoError(t, err)
	assert.InDelta(t, 0.123, coastal.TurbulenceCoefficient, 1e-12)

	urban, err := tab.Lookup(Urban)
	require.NoError(t, err)
	assert.InDelta(t, 0.434, urban.TurbulenceCoefficient, 1e-12)

	def, err := tab.Lookup(DefaultTerrainClass)
	require.NoError(t, err)
	assert.InDelta(t, 0.22, def.Exponent, 1e-12)
	assert.InDelta(t, 0.25, def.RoughnessLength, 1e-12)
}

func TestTerrains_LookupUnknown(t *testing.T) {
	_, err := DefaultTerrains().Lookup("glacier")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestTerrains_ClassesIsACopy(t *testing.T) {
	tab := DefaultTerrains()
	c := tab.Classes()
	c[0] = "mutated"
	assert.Equal(t, Coastal, tab.Classes()[0])
}

func TestNewTerrains_RejectsInvalidRow(t *testing.T) {
	_, err := NewTerrains(map[TerrainClass]Terrain{
		"flat": {Exponent: 1.5, RoughnessLength: 0.01, TurbulenceCoefficient: 0.1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDomain))

	_, err = NewTerrains(map[TerrainClass]Terrain{
		"flat": {Exponent: 0.1, RoughnessLength: 0.01, TurbulenceCoefficient: 0},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestParseTerrainClass(t *testing.T) {
	cases := map[string]TerrainClass{
		"short_grass":      ShortGrass,
		"Short Grass":      ShortGrass,
		" trees-buildings": TreesBuildings,
		"URBAN":            Urban,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTerrainClass(in), "in=%q", in)
	}
}

func TestObservation_Validate(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, Observation{Timestamp: ts, Speed: 0, Height: 10}.Validate())
	require.NoError(t, Observation{Timestamp: ts, Speed: 7.5, Height: 80}.Validate())

	err := Observation{Timestamp: ts, Speed: -1, Height: 10}.Validate()
	assert.True(t, errors.Is(err, ErrDomain))

	err = Observation{Timestamp: ts, Speed: 3, Height: 0}.Validate()
	assert.True(t, errors.Is(err, ErrDomain))
}

func TestSpeeds(t *testing.T) {
	obs := []Observation{{Speed: 1}, {Speed: 2.5}, {Speed: 4}}
	assert.Equal(t, []float64{1, 2.5, 4}, Speeds(obs))
	assert.Empty(t, Speeds(nil))
}
