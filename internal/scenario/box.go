package scenario

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/sim"
	"github.com/san-kum/espic/internal/solver"
	"github.com/san-kum/espic/internal/species"
)

// BoxConfig describes the grounded 3-D box: cold oxygen ions loaded on
// a quiet-start lattice across the whole domain, and cold electrons
// loaded randomly into the lower-corner octant.
type BoxConfig struct {
	Origin   plasma.Vec3
	MaxBound plasma.Vec3
	Dims     mesh.Dimensions

	IonDensity      float64
	ElectronDensity float64
	// IonLattice is the quiet-start site count per axis. Zeros default
	// to the mesh node counts.
	IonLattice    [3]int
	ElectronCount int

	Seed   int64
	Walls  species.Boundary
	Dt     float64
	Solver solver.Params
}

func DefaultBoxConfig() BoxConfig {
	return BoxConfig{
		Origin:          plasma.Vec3{X: -0.1, Y: -0.1, Z: -0.1},
		MaxBound:        plasma.Vec3{X: 0.1, Y: 0.1, Z: 0.2},
		Dims:            mesh.Dimensions{X: 21, Y: 21, Z: 21},
		IonDensity:      1e11,
		ElectronDensity: 1e11,
		ElectronCount:   10000,
		Seed:            42,
		Dt:              2e-10,
		Solver:          solver.DefaultParams(),
	}
}

// GroundedBox is the 3-D scenario: an initially neutral-on-average
// plasma inside grounded walls. The electron octant expands against the
// nearly immobile ion background.
type GroundedBox struct {
	box    *mesh.Box
	pops   []*species.Species
	walls  species.Boundary
	params solver.Params
	dt     float64
}

func NewGroundedBox(cfg BoxConfig) (*GroundedBox, error) {
	box, err := mesh.NewBox(cfg.Origin, cfg.MaxBound, cfg.Dims)
	if err != nil {
		return nil, err
	}
	if cfg.IonDensity < 0 || cfg.ElectronDensity < 0 {
		return nil, fmt.Errorf("densities %g, %g must not be negative: %w",
			cfg.IonDensity, cfg.ElectronDensity, plasma.ErrInvalidConfig)
	}

	lattice := cfg.IonLattice
	if lattice[0] == 0 {
		lattice = [3]int{cfg.Dims.X, cfg.Dims.Y, cfg.Dims.Z}
	}

	ions, err := species.New("O+", 16*plasma.AtomicMassUnit, plasma.ElementaryCharge)
	if err != nil {
		return nil, err
	}
	if err := ions.LoadBoxQuietStart(cfg.Origin, cfg.MaxBound, cfg.IonDensity, lattice); err != nil {
		return nil, err
	}

	electrons, err := species.New("e-", plasma.ElectronMass, -plasma.ElementaryCharge)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	if err := electrons.LoadBox(rng, cfg.Origin, box.Centroid(), cfg.ElectronDensity, cfg.ElectronCount); err != nil {
		return nil, err
	}

	g := &GroundedBox{
		box:    box,
		pops:   []*species.Species{ions, electrons},
		walls:  cfg.Walls,
		params: cfg.Solver,
		dt:     cfg.Dt,
	}

	// Solve the initial charge layout so both populations can be
	// rewound into leapfrog stagger.
	if err := g.Deposit(); err != nil {
		return nil, err
	}
	if res := g.Solve(); !res.Converged {
		return nil, fmt.Errorf("initial box solve: %w", res.Err())
	}
	g.ComputeField()
	for _, sp := range g.pops {
		if err := sp.Rewind(box, cfg.Dt); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *GroundedBox) Name() string { return "box" }

// Deposit recomputes each species' number density and accumulates the
// node charge density.
func (g *GroundedBox) Deposit() error {
	g.box.Rho.Clear()
	for _, sp := range g.pops {
		if err := sp.ComputeNumberDensity(g.box); err != nil {
			return err
		}
		if err := g.box.Rho.AddScaled(sp.Density, sp.Charge); err != nil {
			return err
		}
	}
	return nil
}

func (g *GroundedBox) Solve() solver.Result {
	return solver.SolveBox(g.box, g.params)
}

func (g *GroundedBox) ComputeField() {
	solver.ComputeFieldBox(g.box)
}

func (g *GroundedBox) Push() error {
	for _, sp := range g.pops {
		if err := sp.Advance(g.box, g.dt, g.walls); err != nil {
			return err
		}
	}
	return nil
}

// Diagnose reports population energies in eV. Potential energy is the
// field energy integral over node control volumes. Position and
// velocity trace the first particle of the first species.
func (g *GroundedBox) Diagnose(step int, time float64) plasma.Diagnostics {
	ke := 0.0
	for _, sp := range g.pops {
		ke += sp.KineticEnergy()
	}

	fe := 0.0
	ef := g.box.Ef.Data()
	vol := g.box.NodeVolumes.Data()
	for i := range ef {
		fe += ef[i].NormSq() * vol[i]
	}
	fe *= 0.5 * plasma.Permittivity

	d := plasma.Diagnostics{
		Step:      step,
		Time:      time,
		Kinetic:   ke / plasma.ElementaryCharge,
		Potential: fe / plasma.ElementaryCharge,
	}
	if len(g.pops) > 0 && len(g.pops[0].Particles) > 0 {
		p := &g.pops[0].Particles[0]
		d.Position = p.Position
		d.Velocity = p.Velocity
	}
	return d
}

func (g *GroundedBox) Snapshot(step int) *plasma.Snapshot {
	densities := make([]plasma.NamedField, 0, len(g.pops))
	for _, sp := range g.pops {
		if sp.Density == nil {
			continue
		}
		densities = append(densities, plasma.NamedField{
			Name: "nd." + sp.Name,
			Data: sp.Density.Copy(),
		})
	}
	return g.box.Snapshot(step, densities)
}

// Box exposes the mesh for tests and live views.
func (g *GroundedBox) Box() *mesh.Box { return g.box }

// Populations exposes the particle species in load order.
func (g *GroundedBox) Populations() []*species.Species { return g.pops }

var _ sim.System = (*GroundedBox)(nil)
