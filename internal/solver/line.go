package solver

import (
	"math"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
)

// SolveLine solves the 1-D discrete Poisson equation d²φ/dx² = −ρ/ε₀
// on the line mesh, leaving φ in m.Phi.
func SolveLine(m *mesh.Line, p Params) Result {
	p = p.withDefaults()

	n := m.Nodes()
	dx2 := m.Dx() * m.Dx()
	phi, rho := m.Phi, m.Rho

	var res Result
	for iter := 1; iter <= p.MaxIterations; iter++ {
		res.Iterations = iter

		// Dirichlet condition at the well edges, re-imposed every sweep.
		phi[0] = p.BoundaryPotential
		phi[n-1] = p.BoundaryPotential

		for i := 1; i < n-1; i++ {
			gs := 0.5 * (phi[i-1] + phi[i+1] + dx2*rho[i]/plasma.Permittivity)
			phi[i] += p.Omega * (gs - phi[i])
		}

		if iter%p.CheckEvery != 0 {
			continue
		}
		res.Residual = lineResidual(m)
		res.History = append(res.History, res.Residual)
		if res.Residual < p.Tolerance {
			res.Converged = true
			return res
		}
	}

	res.Residual = lineResidual(m)
	res.Converged = res.Residual < p.Tolerance
	return res
}

// lineResidual is the L2 norm of the Poisson residue over interior
// nodes, normalized by node count.
func lineResidual(m *mesh.Line) float64 {
	n := m.Nodes()
	dx2 := m.Dx() * m.Dx()
	phi, rho := m.Phi, m.Rho

	sum := 0.0
	for i := 1; i < n-1; i++ {
		r := -rho[i]/plasma.Permittivity - (phi[i-1]-2*phi[i]+phi[i+1])/dx2
		sum += r * r
	}
	return math.Sqrt(sum) / float64(n)
}

// ComputeFieldLine differentiates the potential into the electric
// field, E = −dφ/dx: central differences interior, second-order
// one-sided at the two walls.
func ComputeFieldLine(m *mesh.Line) {
	n := m.Nodes()
	dx := m.Dx()
	phi, ef := m.Phi, m.Ef

	for i := 1; i < n-1; i++ {
		ef[i] = -(phi[i+1] - phi[i-1]) / (2 * dx)
	}
	ef[0] = (3*phi[0] - 4*phi[1] + phi[2]) / (2 * dx)
	ef[n-1] = (-phi[n-3] + 4*phi[n-2] - 3*phi[n-1]) / (2 * dx)
}
