package aero

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/windpower/pkg/wind"
)

func TestParseVariant(t *testing.T) {
	cases := map[string]Variant{
		"heier":          Heier,
		"Raiambal":       Raiambal,
		"fixed_speed":    FixedSpeed,
		"fixed-speed":    FixedSpeed,
		"VariableSpeed":  VariableSpeed,
		" variable speed": VariableSpeed,
	}
	for in, want := range cases {
		got, err := ParseVariant(in)
		require.NoError(t, err, "in=%q", in)
		assert.Equal(t, want, got, "in=%q", in)
	}

	_, err := ParseVariant("default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
}

func TestVariant_TextRoundTrip(t *testing.T) {
	for _, v := range Variants() {
		b, err := v.MarshalText()
		require.NoError(t, err)
		var back Variant
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, v, back)
	}

	_, err := Variant(-1).MarshalText()
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
	assert.Equal(t, "variant(9)", Variant(9).String())
}

func TestTable_Lookup(t *testing.T) {
	tab := DefaultTable()
	c, err := tab.Lookup(FixedSpeed)
	require.NoError(t, err)
	assert.Equal(t, 0.44, c.C1)

	_, err = tab.Lookup(variantCount)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
}
