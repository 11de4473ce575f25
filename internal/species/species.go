// Package species manages homogeneous particle populations: loading,
// the leapfrog push, wall handling, and number density deposition.
package species

import (
	"fmt"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
)

// Particle carries continuous position and velocity. Weight is the
// macroparticle weight: how many real particles this one stands for.
type Particle struct {
	Position plasma.Vec3
	Velocity plasma.Vec3
	Weight   float64
}

// Species is a population of particles sharing mass and charge.
// Mass is in kg, charge in C.
type Species struct {
	Name   string
	Mass   float64
	Charge float64

	Particles []Particle

	// Density holds the species number density, recomputed each step.
	// Nil until AllocDensity is called; the 1-D well never needs it.
	Density *mesh.ScalarField
}

func New(name string, mass, charge float64) (*Species, error) {
	if mass <= 0 {
		return nil, fmt.Errorf("species %q mass %g must be positive: %w",
			name, mass, plasma.ErrInvalidConfig)
	}
	return &Species{Name: name, Mass: mass, Charge: charge}, nil
}

// AllocDensity attaches a number density field matching the mesh.
func (s *Species) AllocDensity(dims mesh.Dimensions) {
	s.Density = mesh.NewScalarField(dims)
}

// Domain is what the pusher needs from a mesh: field interpolation at a
// physical position and the physical extent for wall handling.
type Domain interface {
	FieldAt(pos plasma.Vec3) (plasma.Vec3, error)
	Bounds() (lo, hi plasma.Vec3)
}

// Rewind shifts every velocity back by half an acceleration step so the
// subsequent kick-drift updates are time-centered (leapfrog staggering).
// Call once after loading, with the field already solved.
func (s *Species) Rewind(d Domain, dt float64) error {
	qm := s.Charge / s.Mass
	for i := range s.Particles {
		p := &s.Particles[i]
		ef, err := d.FieldAt(p.Position)
		if err != nil {
			return &plasma.StepError{Species: s.Name, Particle: i, Wrapped: err}
		}
		p.Velocity = p.Velocity.Sub(ef.Scale(0.5 * qm * dt))
	}
	return nil
}

// Advance pushes every particle one timestep: gather the field at the
// particle, kick the velocity, drift the position, then apply the wall
// policy. Out-of-domain gathers indicate an upstream boundary defect
// and abort the push.
func (s *Species) Advance(d Domain, dt float64, b Boundary) error {
	qm := s.Charge / s.Mass
	lo, hi := d.Bounds()

	for i := range s.Particles {
		p := &s.Particles[i]

		ef, err := d.FieldAt(p.Position)
		if err != nil {
			return &plasma.StepError{Species: s.Name, Particle: i, Wrapped: err}
		}

		p.Velocity = p.Velocity.Add(ef.Scale(qm * dt))
		p.Position = p.Position.Add(p.Velocity.Scale(dt))

		applyBoundary(p, lo, hi, b)
	}
	return nil
}

// ComputeNumberDensity scatters macroparticle weights onto the mesh and
// divides by node volumes.
func (s *Species) ComputeNumberDensity(b *mesh.Box) error {
	if s.Density == nil {
		s.AllocDensity(b.Dims())
	}
	s.Density.Clear()

	for i := range s.Particles {
		p := &s.Particles[i]
		if err := s.Density.Scatter(b.Logical(p.Position), p.Weight); err != nil {
			return &plasma.StepError{Species: s.Name, Particle: i, Wrapped: err}
		}
	}
	return s.Density.DivideBy(b.NodeVolumes)
}

// KineticEnergy returns the population's total kinetic energy in J,
// weighted by macroparticle weight.
func (s *Species) KineticEnergy() float64 {
	sum := 0.0
	for i := range s.Particles {
		p := &s.Particles[i]
		sum += 0.5 * s.Mass * p.Weight * p.Velocity.NormSq()
	}
	return sum
}
