package types

import "fmt"

// Power is a float64 wrapper representing power in kilowatts.
type Power float64

// Humanized returns a human-readable string with automatic unit (W, kW, MW, GW).
func (p Power) Humanized() string {
	v := float64(p)
	a := v
	if a < 0 {
		a = -a
	}
	switch {
	case a >= 1e6:
		return fmt.Sprintf("%.2f GW", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.2f MW", v/1e3)
	case a >= 1:
		return fmt.Sprintf("%.2f kW", v)
	default:
		return fmt.Sprintf("%.1f W", v*1e3)
	}
}

// W returns the number of watts.
func (p Power) W() float64 { return float64(p) * 1e3 }

// KW returns the number of kilowatts.
func (p Power) KW() float64 { return float64(p) }

// MW returns the number of megawatts.
func (p Power) MW() float64 { return float64(p) / 1e3 }

// Energy is a float64 wrapper representing energy in kilowatt-hours.
type Energy float64

// Humanized returns a human-readable string with automatic unit (Wh, kWh, MWh, GWh).
func (e Energy) Humanized() string {
	v := float64(e)
	a := v
	if a < 0 {
		a = -a
	}
	switch {
	case a >= 1e6:
		return fmt.Sprintf("%.2f GWh", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.2f MWh", v/1e3)
	case a >= 1:
		return fmt.Sprintf("%.2f kWh", v)
	default:
		return fmt.Sprintf("%.1f Wh", v*1e3)
	}
}

// KWh returns the number of kilowatt-hours.
func (e Energy) KWh() float64 { return float64(e) }

// MWh returns the number of megawatt-hours.
func (e Energy) MWh() float64 { return float64(e) / 1e3 }

// GWh returns the number of gigawatt-hours.
func (e Energy) GWh() float64 { return float64(e) / 1e6 }

// Joules converts to SI energy.
func (e Energy) Joules() float64 { return float64(e) * 3.6e6 }
