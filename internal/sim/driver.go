// Package sim orchestrates the particle-in-cell cycle.
//
// The [Driver] owns a [System] for the lifetime of a run and executes
// the fixed per-timestep sequence deposit → solve → differentiate →
// push → diagnose, feeding observers, metrics and snapshot writers at
// step boundaries. No I/O happens mid-step, and cancellation is only
// honored between completed timesteps.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/solver"
)

// State is the driver lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initialized
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FailurePolicy decides what a solver non-convergence does to the run.
type FailurePolicy int

const (
	// WarnAndContinue records the failure and proceeds with the
	// best-effort potential.
	WarnAndContinue FailurePolicy = iota
	// Abort fails the run on the first non-converged solve.
	Abort
)

// Config holds the per-run driver settings.
type Config struct {
	// Dt is the timestep duration in seconds.
	Dt float64
	// Steps is the number of timesteps to execute.
	Steps int
	// OnNonConvergence selects the policy for failed potential solves.
	OnNonConvergence FailurePolicy
	// SnapshotEvery emits a mesh snapshot on the first step and then
	// every so many steps. Zero disables snapshots.
	SnapshotEvery int
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("timestep %g must be positive: %w", c.Dt, plasma.ErrInvalidConfig)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("step count %d must be positive: %w", c.Steps, plasma.ErrInvalidConfig)
	}
	return nil
}

// System is one simulation setup: a mesh plus its particle populations.
// The driver calls the methods in a fixed order each timestep.
type System interface {
	Name() string

	// Deposit recomputes charge density from particle positions.
	Deposit() error
	// Solve updates the potential from the deposited density.
	Solve() solver.Result
	// ComputeField differentiates the potential into the field.
	ComputeField()
	// Push advances every particle one timestep and applies walls.
	Push() error
	// Diagnose reports the step's scalar diagnostics.
	Diagnose(step int, time float64) plasma.Diagnostics
	// Snapshot copies the mesh state for output collaborators, or
	// returns nil when the system has nothing to snapshot.
	Snapshot(step int) *plasma.Snapshot
}

// Result accumulates everything a run produces.
type Result struct {
	Trace         []plasma.Diagnostics
	Metrics       map[string]float64
	StepsTaken    int
	SolveFailures int
	// IOErrors collects snapshot write failures. They never stop the
	// physics loop.
	IOErrors []error
}

// Driver owns the grid and species (through the System) for a run.
type Driver struct {
	sys       System
	state     State
	step      int
	observers []plasma.Observer
	writers   []plasma.SnapshotWriter
	metrics   []plasma.Metric
}

func New(sys System) *Driver {
	return &Driver{sys: sys, state: Initialized}
}

func (d *Driver) State() State { return d.state }

func (d *Driver) AddObserver(o plasma.Observer) { d.observers = append(d.observers, o) }
func (d *Driver) AddMetric(m plasma.Metric)     { d.metrics = append(d.metrics, m) }

func (d *Driver) AddSnapshotWriter(w plasma.SnapshotWriter) { d.writers = append(d.writers, w) }

// Run executes the configured number of timesteps. The returned Result
// is valid even on error, holding whatever completed before failure.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if d.state != Initialized {
		return nil, fmt.Errorf("driver is %s, not initialized: %w", d.state, plasma.ErrDriverState)
	}
	d.state = Running

	result := &Result{
		Trace:   make([]plasma.Diagnostics, 0, cfg.Steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range d.metrics {
		m.Reset()
	}

	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			d.state = Failed
			return result, ctx.Err()
		default:
		}

		if err := d.cycle(step, cfg, result); err != nil {
			d.state = Failed
			return result, err
		}
	}

	d.state = Completed
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// cycle is one full PIC timestep.
func (d *Driver) cycle(step int, cfg Config, result *Result) error {
	if err := d.sys.Deposit(); err != nil {
		return stampStep(err, step)
	}

	res := d.sys.Solve()
	if !res.Converged {
		result.SolveFailures++
		if cfg.OnNonConvergence == Abort {
			return stampStep(res.Err(), step)
		}
	}

	d.sys.ComputeField()

	if err := d.sys.Push(); err != nil {
		return stampStep(err, step)
	}

	diag := d.sys.Diagnose(step, float64(step)*cfg.Dt)
	diag.SolveConverged = res.Converged
	diag.SolveIterations = res.Iterations
	result.Trace = append(result.Trace, diag)
	result.StepsTaken = step

	for _, m := range d.metrics {
		m.Observe(diag)
	}
	for _, o := range d.observers {
		o.OnStep(diag)
	}

	if cfg.SnapshotEvery > 0 && (step == 1 || step%cfg.SnapshotEvery == 0) {
		if snap := d.sys.Snapshot(step); snap != nil {
			for _, w := range d.writers {
				if err := w.WriteSnapshot(snap); err != nil {
					result.IOErrors = append(result.IOErrors,
						fmt.Errorf("snapshot at step %d: %w", step, err))
				}
			}
		}
	}
	return nil
}

// StepOnce advances a single timestep outside a batch run, for live
// views. The first call moves the driver into Running.
func (d *Driver) StepOnce(cfg Config) (plasma.Diagnostics, error) {
	if d.state != Initialized && d.state != Running {
		return plasma.Diagnostics{}, fmt.Errorf("driver is %s: %w", d.state, plasma.ErrDriverState)
	}
	d.state = Running
	d.step++

	var result Result
	if err := d.cycle(d.step, cfg, &result); err != nil {
		d.state = Failed
		return plasma.Diagnostics{}, err
	}
	return result.Trace[0], nil
}

// stampStep fills the step index into StepError chains; other errors
// are wrapped with the step for context.
func stampStep(err error, step int) error {
	var se *plasma.StepError
	if errors.As(err, &se) {
		se.Step = step
		return err
	}
	return fmt.Errorf("step %d: %w", step, err)
}
