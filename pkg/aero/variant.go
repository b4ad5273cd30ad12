package aero

import (
	"fmt"
	"strings"

	"github.com/ja7ad/windpower/pkg/wind"
)

// Variant is one of the closed set of published Cp(λ, β) parameter sets.
type Variant int

const (
	Heier Variant = iota
	Raiambal
	FixedSpeed
	VariableSpeed

	variantCount
)

var _variantNames = [variantCount]string{
	Heier:         "heier",
	Raiambal:      "raiambal",
	FixedSpeed:    "fixed_speed",
	VariableSpeed: "variable_speed",
}

func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return _variantNames[v]
}

// Valid reports whether v is a member of the closed set.
func (v Variant) Valid() bool { return v >= 0 && v < variantCount }

// Variants lists every member in declaration order.
func Variants() []Variant {
	out := make([]Variant, 0, variantCount)
	for v := Variant(0); v < variantCount; v++ {
		out = append(out, v)
	}
	return out
}

// ParseVariant accepts the snake_case names plus a few spellings seen in
// configuration files ("fixed-speed", "VariableSpeed").
func ParseVariant(s string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for v, name := range _variantNames {
		if strings.ReplaceAll(name, "_", "") == key {
			return Variant(v), nil
		}
	}
	return 0, fmt.Errorf("%w: efficiency variant %q", wind.ErrUnknownModel, s)
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: efficiency variant %d", wind.ErrUnknownModel, int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}
