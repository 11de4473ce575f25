// Package metrics provides run-level summary metrics computed from the
// per-step diagnostics stream.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/espic/internal/plasma"
)

// EnergyDrift tracks the largest relative deviation of total energy
// from its value on the first observed step. A leapfrog run that holds
// this near zero is conserving energy.
type EnergyDrift struct {
	name    string
	initial float64
	max     float64
	samples int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(d plasma.Diagnostics) {
	total := d.Total()
	e.samples++
	if e.samples == 1 {
		e.initial = total
		return
	}
	if e.initial != 0 {
		drift := math.Abs(total-e.initial) / math.Abs(e.initial)
		e.max = math.Max(e.max, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.max
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.max = 0
	e.samples = 0
}

// MeanKinetic reports the mean kinetic energy over the run, in eV.
type MeanKinetic struct {
	name    string
	samples []float64
}

func NewMeanKinetic() *MeanKinetic {
	return &MeanKinetic{name: "mean_kinetic_energy"}
}

func (m *MeanKinetic) Name() string { return m.name }

func (m *MeanKinetic) Observe(d plasma.Diagnostics) {
	m.samples = append(m.samples, d.Kinetic)
}

func (m *MeanKinetic) Value() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return stat.Mean(m.samples, nil)
}

func (m *MeanKinetic) Reset() {
	m.samples = m.samples[:0]
}
