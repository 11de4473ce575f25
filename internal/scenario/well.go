// Package scenario assembles ready-to-run simulation setups: a mesh,
// its particle populations, and the solver settings, behind the driver
// System interface.
package scenario

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/sim"
	"github.com/san-kum/espic/internal/solver"
	"github.com/san-kum/espic/internal/species"
)

// WellConfig describes the 1-D potential well: a grounded line mesh
// filled with a frozen uniform ion background and a single electron
// released off-center.
type WellConfig struct {
	Nodes    int
	Origin   float64
	MaxBound float64
	// BackgroundDensity is the frozen ion density in 1/m^3. It is
	// deposited once and never updated, so the well shape is static.
	BackgroundDensity float64
	// StartNode places the electron, in units of node spacings from
	// the origin.
	StartNode float64
	Dt        float64
	Solver    solver.Params
}

func DefaultWellConfig() WellConfig {
	return WellConfig{
		Nodes:             21,
		Origin:            0,
		MaxBound:          0.1,
		BackgroundDensity: 1e12,
		StartNode:         4,
		Dt:                1e-10,
		Solver:            solver.DefaultParams(),
	}
}

// Well is the 1-D electron oscillation scenario. The uniform positive
// background produces a parabolic potential well; the electron trades
// kinetic and potential energy as it oscillates at the plasma
// frequency.
type Well struct {
	line      *mesh.Line
	electrons *species.Species
	params    solver.Params
	dt        float64

	// prev holds the electron position before the last push, so
	// diagnostics can evaluate potential at the midpoint where the
	// staggered velocity lives.
	prev plasma.Vec3
}

func NewWell(cfg WellConfig) (*Well, error) {
	line, err := mesh.NewLine(cfg.Origin, cfg.MaxBound, cfg.Nodes)
	if err != nil {
		return nil, err
	}
	if cfg.BackgroundDensity < 0 {
		return nil, fmt.Errorf("background density %g must not be negative: %w",
			cfg.BackgroundDensity, plasma.ErrInvalidConfig)
	}
	if cfg.StartNode < 0 || cfg.StartNode > float64(cfg.Nodes-1) {
		return nil, fmt.Errorf("start node %g outside %d-node mesh: %w",
			cfg.StartNode, cfg.Nodes, plasma.ErrInvalidConfig)
	}

	for i := range line.Rho {
		line.Rho[i] = plasma.ElementaryCharge * cfg.BackgroundDensity
	}

	electrons, err := species.New("electrons", plasma.ElectronMass, -plasma.ElementaryCharge)
	if err != nil {
		return nil, err
	}
	electrons.Particles = []species.Particle{{
		Position: plasma.Vec3{X: cfg.Origin + cfg.StartNode*line.Dx()},
		Weight:   1,
	}}

	w := &Well{
		line:      line,
		electrons: electrons,
		params:    cfg.Solver,
		dt:        cfg.Dt,
	}
	w.prev = electrons.Particles[0].Position

	// The electron starts cold, so the leapfrog rewind needs the field
	// of the initial well.
	if res := solver.SolveLine(line, w.params); !res.Converged {
		return nil, fmt.Errorf("initial well solve: %w", res.Err())
	}
	solver.ComputeFieldLine(line)
	if err := electrons.Rewind(line, cfg.Dt); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Well) Name() string { return "well" }

// Deposit is a no-op: the ion background is frozen and the single
// electron's own charge is not fed back into the well.
func (w *Well) Deposit() error { return nil }

func (w *Well) Solve() solver.Result {
	return solver.SolveLine(w.line, w.params)
}

func (w *Well) ComputeField() {
	solver.ComputeFieldLine(w.line)
}

func (w *Well) Push() error {
	w.prev = w.electrons.Particles[0].Position
	return w.electrons.Advance(w.line, w.dt, species.Boundary{})
}

// Diagnose reports the electron's energies in eV. Kinetic energy uses
// the staggered velocity, which lives half a step behind the position,
// so potential energy is evaluated at the midpoint of the last drift.
// The reference is the well's peak potential, making the bottom of the
// well the zero of potential energy.
func (w *Well) Diagnose(step int, time float64) plasma.Diagnostics {
	p := &w.electrons.Particles[0]
	mid := w.prev.Add(p.Position).Scale(0.5)

	phiMax := floats.Max(w.line.Phi)
	pe := phiMax - w.potentialAt(mid)
	ke := 0.5 * plasma.ElectronMass * p.Velocity.NormSq() / plasma.ElementaryCharge

	return plasma.Diagnostics{
		Step:      step,
		Time:      time,
		Kinetic:   ke,
		Potential: pe,
		Position:  p.Position,
		Velocity:  p.Velocity,
	}
}

// Snapshot returns nil: line meshes report through the per-step trace,
// not mesh snapshots.
func (w *Well) Snapshot(step int) *plasma.Snapshot { return nil }

// Line exposes the mesh for live views.
func (w *Well) Line() *mesh.Line { return w.line }

// Electron exposes the traced particle for live views.
func (w *Well) Electron() *species.Particle { return &w.electrons.Particles[0] }

func (w *Well) potentialAt(pos plasma.Vec3) float64 {
	max := float64(w.line.Nodes() - 1)
	x := w.line.Logical(pos).X
	if x < 0 {
		x = 0
	} else if x > max {
		x = max
	}
	v, _ := w.line.Gather(w.line.Phi, x)
	return v
}

var _ sim.System = (*Well)(nil)
