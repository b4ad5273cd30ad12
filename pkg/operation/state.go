package operation

import (
	"fmt"

	"github.com/ja7ad/windpower/pkg/turbine"
)

// State is the operating region of a turbine at one instant.
type State int

const (
	Stopped State = iota
	MPPT
	Rated
	CutOut

	stateCount
)

var _stateNames = [stateCount]string{
	Stopped: "stopped",
	MPPT:    "mppt",
	Rated:   "rated",
	CutOut:  "cut_out",
}

func (s State) String() string {
	if s < 0 || s >= stateCount {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return _stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// States lists every state in order.
func States() []State { return []State{Stopped, MPPT, Rated, CutOut} }

// Classify maps a wind speed to a state. There is no hysteresis: the result
// depends on v alone.
//
//	v < cut-in            : Stopped
//	cut-in <= v < rated   : MPPT
//	rated <= v <= cut-out : Rated
//	v > cut-out           : CutOut
//
// CutOut is the storm shutdown region: the rotor is stopped and produces
// nothing, like Stopped, but is reported apart from calm.
func Classify(v float64, spec turbine.Spec) State {
	switch {
	case v < spec.CutIn:
		return Stopped
	case v < spec.Rated:
		return MPPT
	case v <= spec.CutOut:
		return Rated
	default:
		return CutOut
	}
}
