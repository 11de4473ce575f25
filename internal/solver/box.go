package solver

import (
	"math"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/plasma"
)

// SolveBox solves the 3-D discrete Poisson equation ∇²φ = −ρ/ε₀ on the
// box mesh, leaving φ in m.Phi. The previous potential is kept as the
// starting guess, so repeated solves over a slowly changing density
// converge quickly.
func SolveBox(m *mesh.Box, p Params) Result {
	p = p.withDefaults()

	d := m.Dims()
	sp := m.Spacing()
	dx2 := 1.0 / (sp[0] * sp[0])
	dy2 := 1.0 / (sp[1] * sp[1])
	dz2 := 1.0 / (sp[2] * sp[2])
	denom := 2*dx2 + 2*dy2 + 2*dz2

	phi, rho := m.Phi, m.Rho

	var res Result
	for iter := 1; iter <= p.MaxIterations; iter++ {
		res.Iterations = iter

		imposeBoxBoundary(m, p.BoundaryPotential)

		for k := 1; k < d.Z-1; k++ {
			for j := 1; j < d.Y-1; j++ {
				for i := 1; i < d.X-1; i++ {
					gs := (rho.At(i, j, k)/plasma.Permittivity +
						dx2*(phi.At(i-1, j, k)+phi.At(i+1, j, k)) +
						dy2*(phi.At(i, j-1, k)+phi.At(i, j+1, k)) +
						dz2*(phi.At(i, j, k-1)+phi.At(i, j, k+1))) / denom

					phi.AddAt(i, j, k, p.Omega*(gs-phi.At(i, j, k)))
				}
			}
		}

		if iter%p.CheckEvery != 0 {
			continue
		}
		res.Residual = boxResidual(m)
		res.History = append(res.History, res.Residual)
		if res.Residual < p.Tolerance {
			res.Converged = true
			return res
		}
	}

	res.Residual = boxResidual(m)
	res.Converged = res.Residual < p.Tolerance
	return res
}

// imposeBoxBoundary clamps every wall node to the Dirichlet value.
func imposeBoxBoundary(m *mesh.Box, phi0 float64) {
	d := m.Dims()
	phi := m.Phi

	for k := 0; k < d.Z; k++ {
		for j := 0; j < d.Y; j++ {
			phi.Set(0, j, k, phi0)
			phi.Set(d.X-1, j, k, phi0)
		}
	}
	for k := 0; k < d.Z; k++ {
		for i := 0; i < d.X; i++ {
			phi.Set(i, 0, k, phi0)
			phi.Set(i, d.Y-1, k, phi0)
		}
	}
	for j := 0; j < d.Y; j++ {
		for i := 0; i < d.X; i++ {
			phi.Set(i, j, 0, phi0)
			phi.Set(i, j, d.Z-1, phi0)
		}
	}
}

func boxResidual(m *mesh.Box) float64 {
	d := m.Dims()
	sp := m.Spacing()
	dx2 := 1.0 / (sp[0] * sp[0])
	dy2 := 1.0 / (sp[1] * sp[1])
	dz2 := 1.0 / (sp[2] * sp[2])
	denom := 2*dx2 + 2*dy2 + 2*dz2

	phi, rho := m.Phi, m.Rho

	sum := 0.0
	for k := 1; k < d.Z-1; k++ {
		for j := 1; j < d.Y-1; j++ {
			for i := 1; i < d.X-1; i++ {
				r := -phi.At(i, j, k)*denom +
					rho.At(i, j, k)/plasma.Permittivity +
					dx2*(phi.At(i-1, j, k)+phi.At(i+1, j, k)) +
					dy2*(phi.At(i, j-1, k)+phi.At(i, j+1, k)) +
					dz2*(phi.At(i, j, k-1)+phi.At(i, j, k+1))
				sum += r * r
			}
		}
	}
	return math.Sqrt(sum / float64(d.Nodes()))
}

// ComputeFieldBox differentiates the potential into the electric field,
// E = −∇φ, component by component: central differences interior,
// second-order one-sided at the walls.
func ComputeFieldBox(m *mesh.Box) {
	d := m.Dims()
	sp := m.Spacing()
	phi, ef := m.Phi, m.Ef

	for k := 0; k < d.Z; k++ {
		for j := 0; j < d.Y; j++ {
			for i := 0; i < d.X; i++ {
				var e plasma.Vec3

				switch {
				case i == 0:
					e.X = -(-3*phi.At(i, j, k) + 4*phi.At(i+1, j, k) - phi.At(i+2, j, k)) / (2 * sp[0])
				case i == d.X-1:
					e.X = -(phi.At(i-2, j, k) - 4*phi.At(i-1, j, k) + 3*phi.At(i, j, k)) / (2 * sp[0])
				default:
					e.X = -(phi.At(i+1, j, k) - phi.At(i-1, j, k)) / (2 * sp[0])
				}

				switch {
				case j == 0:
					e.Y = -(-3*phi.At(i, j, k) + 4*phi.At(i, j+1, k) - phi.At(i, j+2, k)) / (2 * sp[1])
				case j == d.Y-1:
					e.Y = -(phi.At(i, j-2, k) - 4*phi.At(i, j-1, k) + 3*phi.At(i, j, k)) / (2 * sp[1])
				default:
					e.Y = -(phi.At(i, j+1, k) - phi.At(i, j-1, k)) / (2 * sp[1])
				}

				switch {
				case k == 0:
					e.Z = -(-3*phi.At(i, j, k) + 4*phi.At(i, j, k+1) - phi.At(i, j, k+2)) / (2 * sp[2])
				case k == d.Z-1:
					e.Z = -(phi.At(i, j, k-2) - 4*phi.At(i, j, k-1) + 3*phi.At(i, j, k)) / (2 * sp[2])
				default:
					e.Z = -(phi.At(i, j, k+1) - phi.At(i, j, k-1)) / (2 * sp[2])
				}

				ef.Set(i, j, k, e)
			}
		}
	}
}
