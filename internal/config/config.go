package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/scenario"
	"github.com/san-kum/espic/internal/sim"
	"github.com/san-kum/espic/internal/solver"
	"github.com/san-kum/espic/internal/species"
)

type Config struct {
	Scenario      string  `yaml:"scenario"`
	Dt            float64 `yaml:"dt"`
	Steps         int     `yaml:"steps"`
	Seed          int64   `yaml:"seed"`
	SnapshotEvery int     `yaml:"snapshot_every"`
	// OnNonConvergence is "warn" or "abort".
	OnNonConvergence string `yaml:"on_non_convergence"`

	Solver SolverConfig `yaml:"solver"`
	Well   WellConfig   `yaml:"well"`
	Box    BoxConfig    `yaml:"box"`
}

type SolverConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	Omega         float64 `yaml:"omega"`
	CheckEvery    int     `yaml:"check_every"`
	// BoundaryPotential is the Dirichlet wall potential in volts.
	BoundaryPotential float64 `yaml:"boundary_potential"`
}

type WellConfig struct {
	Nodes     int     `yaml:"nodes"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Density   float64 `yaml:"density"`
	StartNode float64 `yaml:"start_node"`
}

type BoxConfig struct {
	Nodes           [3]int     `yaml:"nodes"`
	Min             [3]float64 `yaml:"min"`
	Max             [3]float64 `yaml:"max"`
	IonDensity      float64    `yaml:"ion_density"`
	ElectronDensity float64    `yaml:"electron_density"`
	ElectronCount   int        `yaml:"electron_count"`
	// Walls is "reflective" or "absorbing", applied to all six walls.
	Walls string `yaml:"walls"`
}

func DefaultConfig() *Config {
	well := scenario.DefaultWellConfig()
	box := scenario.DefaultBoxConfig()
	return &Config{
		Scenario:         "well",
		Dt:               well.Dt,
		Steps:            5000,
		Seed:             box.Seed,
		OnNonConvergence: "warn",
		Solver: SolverConfig{
			MaxIterations: well.Solver.MaxIterations,
			Tolerance:     well.Solver.Tolerance,
			Omega:         well.Solver.Omega,
			CheckEvery:    well.Solver.CheckEvery,
		},
		Well: WellConfig{
			Nodes:     well.Nodes,
			Min:       well.Origin,
			Max:       well.MaxBound,
			Density:   well.BackgroundDensity,
			StartNode: well.StartNode,
		},
		Box: BoxConfig{
			Nodes:           [3]int{box.Dims.X, box.Dims.Y, box.Dims.Z},
			Min:             [3]float64{box.Origin.X, box.Origin.Y, box.Origin.Z},
			Max:             [3]float64{box.MaxBound.X, box.MaxBound.Y, box.MaxBound.Z},
			IonDensity:      box.IonDensity,
			ElectronDensity: box.ElectronDensity,
			ElectronCount:   box.ElectronCount,
			Walls:           "reflective",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Scenario != "well" && c.Scenario != "box" {
		return fmt.Errorf("unknown scenario %q: %w", c.Scenario, plasma.ErrInvalidConfig)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt %g must be positive: %w", c.Dt, plasma.ErrInvalidConfig)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps %d must be positive: %w", c.Steps, plasma.ErrInvalidConfig)
	}
	if _, err := c.policy(); err != nil {
		return err
	}
	if _, err := c.wallBoundary(); err != nil {
		return err
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver max_iterations %d must be positive: %w",
			c.Solver.MaxIterations, plasma.ErrInvalidConfig)
	}
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance %g must be positive: %w",
			c.Solver.Tolerance, plasma.ErrInvalidConfig)
	}
	if c.Solver.Omega != 0 && (c.Solver.Omega <= 0 || c.Solver.Omega >= 2) {
		return fmt.Errorf("over-relaxation factor %g outside (0, 2): %w",
			c.Solver.Omega, plasma.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) policy() (sim.FailurePolicy, error) {
	switch c.OnNonConvergence {
	case "", "warn":
		return sim.WarnAndContinue, nil
	case "abort":
		return sim.Abort, nil
	}
	return 0, fmt.Errorf("on_non_convergence %q must be warn or abort: %w",
		c.OnNonConvergence, plasma.ErrInvalidConfig)
}

func (c *Config) wallBoundary() (species.Boundary, error) {
	switch c.Box.Walls {
	case "", "reflective":
		return species.Boundary{}, nil
	case "absorbing":
		return species.AllAbsorbing(), nil
	}
	return species.Boundary{}, fmt.Errorf("walls %q must be reflective or absorbing: %w",
		c.Box.Walls, plasma.ErrInvalidConfig)
}

func (c *Config) solverParams() solver.Params {
	return solver.Params{
		MaxIterations:     c.Solver.MaxIterations,
		Tolerance:         c.Solver.Tolerance,
		Omega:             c.Solver.Omega,
		CheckEvery:        c.Solver.CheckEvery,
		BoundaryPotential: c.Solver.BoundaryPotential,
	}
}

// Build assembles the configured scenario and the driver config to run
// it under.
func (c *Config) Build() (sim.System, sim.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, sim.Config{}, err
	}
	policy, _ := c.policy()
	driver := sim.Config{
		Dt:               c.Dt,
		Steps:            c.Steps,
		OnNonConvergence: policy,
		SnapshotEvery:    c.SnapshotEvery,
	}

	switch c.Scenario {
	case "box":
		walls, _ := c.wallBoundary()
		sys, err := scenario.NewGroundedBox(scenario.BoxConfig{
			Origin:          plasma.Vec3{X: c.Box.Min[0], Y: c.Box.Min[1], Z: c.Box.Min[2]},
			MaxBound:        plasma.Vec3{X: c.Box.Max[0], Y: c.Box.Max[1], Z: c.Box.Max[2]},
			Dims:            mesh.Dimensions{X: c.Box.Nodes[0], Y: c.Box.Nodes[1], Z: c.Box.Nodes[2]},
			IonDensity:      c.Box.IonDensity,
			ElectronDensity: c.Box.ElectronDensity,
			ElectronCount:   c.Box.ElectronCount,
			Seed:            c.Seed,
			Walls:           walls,
			Dt:              c.Dt,
			Solver:          c.solverParams(),
		})
		return sys, driver, err
	default:
		sys, err := scenario.NewWell(scenario.WellConfig{
			Nodes:             c.Well.Nodes,
			Origin:            c.Well.Min,
			MaxBound:          c.Well.Max,
			BackgroundDensity: c.Well.Density,
			StartNode:         c.Well.StartNode,
			Dt:                c.Dt,
			Solver:            c.solverParams(),
		})
		return sys, driver, err
	}
}
