package species

import "github.com/san-kum/espic/internal/plasma"

// WallPolicy selects how a particle crossing a domain wall is handled.
type WallPolicy int

const (
	// Reflective mirrors the overshoot back inside and negates the
	// wall-normal velocity component. A particle d beyond the wall ends
	// exactly d inside it.
	Reflective WallPolicy = iota
	// Absorbing clamps the particle to the wall and zeroes its velocity.
	Absorbing
)

// Boundary assigns a policy to each of the six walls. The zero value is
// all-reflective.
type Boundary struct {
	Lo [3]WallPolicy
	Hi [3]WallPolicy
}

func AllAbsorbing() Boundary {
	return Boundary{
		Lo: [3]WallPolicy{Absorbing, Absorbing, Absorbing},
		Hi: [3]WallPolicy{Absorbing, Absorbing, Absorbing},
	}
}

func applyBoundary(p *Particle, lo, hi plasma.Vec3, b Boundary) {
	foldAxis(&p.Position.X, &p.Velocity.X, lo.X, hi.X, b.Lo[0], b.Hi[0])
	foldAxis(&p.Position.Y, &p.Velocity.Y, lo.Y, hi.Y, b.Lo[1], b.Hi[1])
	foldAxis(&p.Position.Z, &p.Velocity.Z, lo.Z, hi.Z, b.Lo[2], b.Hi[2])
}

// foldAxis brings one coordinate back into [lo, hi]. Axes with zero
// extent (a 1-D domain embedded in 3-D coordinates) are skipped. The
// loop covers a particle fast enough to cross the domain more than once
// in a single step.
func foldAxis(x, v *float64, lo, hi float64, polLo, polHi WallPolicy) {
	if hi <= lo {
		return
	}
	for n := 0; n < 64; n++ {
		switch {
		case *x < lo:
			if polLo == Absorbing {
				*x = lo
				*v = 0
				return
			}
			*x = 2*lo - *x
			*v = -*v
		case *x > hi:
			if polHi == Absorbing {
				*x = hi
				*v = 0
				return
			}
			*x = 2*hi - *x
			*v = -*v
		default:
			return
		}
	}

	// Pathological speed; pin to the nearer wall.
	if *x < lo {
		*x = lo
	} else if *x > hi {
		*x = hi
	}
	*v = 0
}
