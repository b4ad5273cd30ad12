package operation

import (
	"fmt"
	"math"
	"time"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Accumulator keeps running energy, time-in-state and power statistics over
// an ordered series of records.
//
// Energy is integrated with the trapezoidal rule over the timestamps:
//
//	E += ½·(P[i-1] + P[i])·(t[i] − t[i-1])
//
// and each interval's duration is split half/half between the states of its
// two end samples, so time-in-state uses the same weights as the energy.
type Accumulator struct {
	count     int
	first     time.Time
	prev      Record
	energyKWh float64
	sumPower  float64
	peakPower float64
	stateDur  [stateCount]time.Duration
	stateN    [stateCount]int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator { return &Accumulator{} }

// Apply adds the next record. Records must be in non-decreasing time order.
func (a *Accumulator) Apply(r Record) error {
	if r.State < 0 || r.State >= stateCount {
		return fmt.Errorf("%w: state %d", wind.ErrDomain, int(r.State))
	}
	if a.count > 0 {
		dt := r.Timestamp.Sub(a.prev.Timestamp)
		if dt < 0 {
			return fmt.Errorf("%w: timestamp %s before %s", wind.ErrDomain,
				r.Timestamp.Format(time.RFC3339Nano), a.prev.Timestamp.Format(time.RFC3339Nano))
		}
		a.energyKWh += 0.5 * (a.prev.Power + r.Power) * dt.Hours()
		a.stateDur[a.prev.State] += dt / 2
		a.stateDur[r.State] += dt - dt/2
	} else {
		a.first = r.Timestamp
		a.peakPower = r.Power
	}

	a.count++
	a.sumPower += r.Power
	a.peakPower = math.Max(a.peakPower, r.Power)
	a.stateN[r.State]++
	a.prev = r
	return nil
}

// Count is the number of applied records.
func (a *Accumulator) Count() int { return a.count }

// EnergyKWh is the integrated energy so far.
func (a *Accumulator) EnergyKWh() float64 { return a.energyKWh }

// Elapsed is the span between the first and last record.
func (a *Accumulator) Elapsed() time.Duration {
	if a.count == 0 {
		return 0
	}
	return a.prev.Timestamp.Sub(a.first)
}

// MeanPower is the time-weighted mean power (energy / elapsed); with zero
// elapsed time it is the arithmetic mean of the samples.
func (a *Accumulator) MeanPower() float64 {
	if a.count == 0 {
		return 0
	}
	if h := a.Elapsed().Hours(); h > 0 {
		return a.energyKWh / h
	}
	return a.sumPower / float64(a.count)
}

// PeakPower is the largest power seen.
func (a *Accumulator) PeakPower() float64 { return a.peakPower }

// TimeInState returns the fraction of time spent in each state. The
// fractions sum to 1 for a non-empty series.
func (a *Accumulator) TimeInState() map[State]float64 {
	out := make(map[State]float64, stateCount)
	total := a.Elapsed()
	for _, s := range States() {
		if total > 0 {
			out[s] = float64(a.stateDur[s]) / float64(total)
		} else {
			out[s] = util.SafeDiv(float64(a.stateN[s]), float64(a.count))
		}
	}
	return out
}
