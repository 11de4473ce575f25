// Package solver computes the electrostatic potential and field on a
// mesh. The Poisson equation is solved with Gauss-Seidel iteration plus
// successive over-relaxation (SOR); the electric field follows from
// central finite differences interior and one-sided second-order
// differences at the domain walls.
package solver

import (
	"fmt"

	"github.com/san-kum/espic/internal/plasma"
)

// Params configures one potential solve.
type Params struct {
	// MaxIterations caps the number of Gauss-Seidel sweeps.
	MaxIterations int
	// Tolerance is the residual L2 norm below which the solve converges.
	Tolerance float64
	// Omega is the over-relaxation factor. 1 is plain Gauss-Seidel.
	Omega float64
	// CheckEvery sets how many sweeps run between residual checks.
	CheckEvery int
	// BoundaryPotential is the Dirichlet value re-imposed on every
	// domain wall each sweep. Zero means grounded walls.
	BoundaryPotential float64
}

func DefaultParams() Params {
	return Params{
		MaxIterations: 4000,
		Tolerance:     1e-6,
		Omega:         1.4,
		CheckEvery:    25,
	}
}

// Result reports the outcome of a solve. A non-converged result still
// leaves the best-effort potential on the mesh; whether that is fatal
// is the caller's policy.
type Result struct {
	Converged  bool
	Iterations int
	Residual   float64
	// History holds the residual at each convergence check, in order.
	History []float64
}

// Err returns nil for a converged result, otherwise an error wrapping
// plasma.ErrNotConverged with the residual and iteration count.
func (r Result) Err() error {
	if r.Converged {
		return nil
	}
	return fmt.Errorf("residual %.3e after %d iterations: %w",
		r.Residual, r.Iterations, plasma.ErrNotConverged)
}

func (p Params) withDefaults() Params {
	if p.Omega == 0 {
		p.Omega = 1.4
	}
	if p.CheckEvery <= 0 {
		p.CheckEvery = 25
	}
	return p
}
