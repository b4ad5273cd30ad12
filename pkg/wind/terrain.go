package wind

import (
	"fmt"
	"slices"
	"strings"
)

// Terrain describes the surface over which the wind blows.
// Units:
//   - Exponent: Hellmann power-law exponent n, dimensionless, 0 < n < 1
//   - RoughnessLength: z0 in m, > 0
//   - TurbulenceCoefficient: K_p, ratio of turbulence std to mean speed, > 0
type Terrain struct {
	Exponent              float64 `json:"exponent" yaml:"exponent" toml:"exponent"`
	RoughnessLength       float64 `json:"roughness_length" yaml:"roughness_length" toml:"roughness_length"`
	TurbulenceCoefficient float64 `json:"turbulence_coefficient" yaml:"turbulence_coefficient" toml:"turbulence_coefficient"`
}

// Validate checks that each parameter lies in its physical range.
// Consistency between n and z0 (same terrain class) is left to the caller.
func (t Terrain) Validate() error {
	if !(t.Exponent > 0 && t.Exponent < 1) {
		return fmt.Errorf("%w: power-law exponent %v not in (0,1)", ErrDomain, t.Exponent)
	}
	if !(t.RoughnessLength > 0) {
		return fmt.Errorf("%w: roughness length %v m must be > 0", ErrDomain, t.RoughnessLength)
	}
	if !(t.TurbulenceCoefficient > 0) {
		return fmt.Errorf("%w: turbulence coefficient %v must be > 0", ErrInvalidParameter, t.TurbulenceCoefficient)
	}
	return nil
}

// TerrainClass names a row of the terrain table.
type TerrainClass string

const (
	Coastal        TerrainClass = "coastal"
	ShortGrass     TerrainClass = "short_grass"
	LowVegetation  TerrainClass = "low_vegetation"
	Shrubs         TerrainClass = "shrubs"
	TreesBuildings TerrainClass = "trees_buildings"
	Residential    TerrainClass = "residential"
	Urban          TerrainClass = "urban"

	// DefaultTerrainClass is used when nothing else is configured.
	DefaultTerrainClass = TreesBuildings
)

// Terrains is an immutable lookup of terrain classes. Build it with
// DefaultTerrains or NewTerrains and hand it to the components that need it.
type Terrains struct {
	order []TerrainClass
	rows  map[TerrainClass]Terrain
}

// NewTerrains builds a table from explicit rows; every row must validate.
func NewTerrains(rows map[TerrainClass]Terrain) (Terrains, error) {
	t := Terrains{rows: make(map[TerrainClass]Terrain, len(rows))}
	for class, row := range rows {
		if err := row.Validate(); err != nil {
			return Terrains{}, fmt.Errorf("terrain %q: %w", class, err)
		}
		t.rows[class] = row
		t.order = append(t.order, class)
	}
	slices.SortFunc(t.order, func(a, b TerrainClass) int {
		ra, rb := t.rows[a], t.rows[b]
		switch {
		case ra.RoughnessLength < rb.RoughnessLength:
			return -1
		case ra.RoughnessLength > rb.RoughnessLength:
			return 1
		default:
			return strings.Compare(string(a), string(b))
		}
	})
	return t, nil
}

// DefaultTerrains returns the built-in table, ordered from smoothest to roughest.
func DefaultTerrains() Terrains {
	t, _ := NewTerrains(map[TerrainClass]Terrain{
		Coastal:        {Exponent: 0.10, RoughnessLength: 0.0002, TurbulenceCoefficient: 0.123},
		ShortGrass:     {Exponent: 0.14, RoughnessLength: 0.008, TurbulenceCoefficient: 0.152},
		LowVegetation:  {Exponent: 0.16, RoughnessLength: 0.03, TurbulenceCoefficient: 0.178},
		Shrubs:         {Exponent: 0.20, RoughnessLength: 0.1, TurbulenceCoefficient: 0.214},
		TreesBuildings: {Exponent: 0.22, RoughnessLength: 0.25, TurbulenceCoefficient: 0.263},
		Residential:    {Exponent: 0.28, RoughnessLength: 1.5, TurbulenceCoefficient: 0.345},
		Urban:          {Exponent: 0.35, RoughnessLength: 3.0, TurbulenceCoefficient: 0.434},
	})
	return t
}

// Lookup returns the terrain of a class, failing with ErrUnknownModel.
func (t Terrains) Lookup(class TerrainClass) (Terrain, error) {
	row, ok := t.rows[class]
	if !ok {
		return Terrain{}, fmt.Errorf("%w: terrain class %q", ErrUnknownModel, class)
	}
	return row, nil
}

// Classes lists the known classes from smoothest to roughest.
func (t Terrains) Classes() []TerrainClass { return slices.Clone(t.order) }

// Len is the number of rows.
func (t Terrains) Len() int { return len(t.order) }

// ParseTerrainClass normalizes a user supplied name ("Short Grass", "short-grass").
func ParseTerrainClass(name string) TerrainClass {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return TerrainClass(s)
}
