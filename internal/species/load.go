package species

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/espic/internal/plasma"
)

// LoadBox fills the region [lo, hi] with count cold particles drawn
// uniformly from the seeded generator. Each macroparticle's weight is
// chosen so the population represents the target physical number
// density over the region.
func (s *Species) LoadBox(rng *rand.Rand, lo, hi plasma.Vec3, density float64, count int) error {
	if count <= 0 {
		return fmt.Errorf("species %q particle count %d must be positive: %w",
			s.Name, count, plasma.ErrInvalidConfig)
	}

	d := hi.Sub(lo)
	weight := density * d.X * d.Y * d.Z / float64(count)

	s.Particles = make([]Particle, count)
	for i := range s.Particles {
		s.Particles[i] = Particle{
			Position: plasma.Vec3{
				X: lo.X + rng.Float64()*d.X,
				Y: lo.Y + rng.Float64()*d.Y,
				Z: lo.Z + rng.Float64()*d.Z,
			},
			Weight: weight,
		}
	}
	return nil
}

// LoadBoxQuietStart places particles on a regular n[0]×n[1]×n[2]
// lattice spanning [lo, hi]. Lattice sites on a region face carry half
// weight per touching axis (quarter on edges, eighth on corners), so
// the represented density stays uniform up to the region boundary
// without the statistical noise of random loading.
func (s *Species) LoadBoxQuietStart(lo, hi plasma.Vec3, density float64, n [3]int) error {
	if n[0] < 2 || n[1] < 2 || n[2] < 2 {
		return fmt.Errorf("species %q quiet-start lattice %v needs at least 2 sites per axis: %w",
			s.Name, n, plasma.ErrInvalidConfig)
	}

	d := hi.Sub(lo)
	sp := plasma.Vec3{
		X: d.X / float64(n[0]-1),
		Y: d.Y / float64(n[1]-1),
		Z: d.Z / float64(n[2]-1),
	}

	// Fractional site weights sum to (n-1) per axis, so the full-weight
	// equivalent count is the product of cell counts.
	base := density * d.X * d.Y * d.Z /
		(float64(n[0]-1) * float64(n[1]-1) * float64(n[2]-1))

	s.Particles = make([]Particle, 0, n[0]*n[1]*n[2])
	for k := 0; k < n[2]; k++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				w := 1.0
				if i == 0 || i == n[0]-1 {
					w *= 0.5
				}
				if j == 0 || j == n[1]-1 {
					w *= 0.5
				}
				if k == 0 || k == n[2]-1 {
					w *= 0.5
				}

				s.Particles = append(s.Particles, Particle{
					Position: plasma.Vec3{
						X: lo.X + float64(i)*sp.X,
						Y: lo.Y + float64(j)*sp.Y,
						Z: lo.Z + float64(k)*sp.Z,
					},
					Weight: base * w,
				})
			}
		}
	}
	return nil
}
