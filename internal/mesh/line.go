package mesh

import (
	"fmt"

	"github.com/san-kum/espic/internal/plasma"
)

// Line is a 1-D lattice of nodes spanning [origin, maxBound]. Field
// arrays are plain slices indexed by node.
type Line struct {
	origin   float64
	maxBound float64
	nodes    int
	dx       float64

	Rho []float64
	Phi []float64
	Ef  []float64
}

func NewLine(origin, maxBound float64, nodes int) (*Line, error) {
	if nodes < 3 {
		return nil, fmt.Errorf("line mesh needs at least 3 nodes, got %d: %w",
			nodes, plasma.ErrInvalidConfig)
	}
	if maxBound <= origin {
		return nil, fmt.Errorf("line mesh max bound %g not beyond origin %g: %w",
			maxBound, origin, plasma.ErrInvalidConfig)
	}

	return &Line{
		origin:   origin,
		maxBound: maxBound,
		nodes:    nodes,
		dx:       (maxBound - origin) / float64(nodes-1),
		Rho:      make([]float64, nodes),
		Phi:      make([]float64, nodes),
		Ef:       make([]float64, nodes),
	}, nil
}

func (l *Line) Origin() float64   { return l.origin }
func (l *Line) MaxBound() float64 { return l.maxBound }
func (l *Line) Nodes() int        { return l.nodes }
func (l *Line) Dx() float64       { return l.dx }

// Logical converts a physical position into a fractional node
// coordinate. Only the x axis is meaningful on a line mesh.
func (l *Line) Logical(pos plasma.Vec3) plasma.Vec3 {
	return plasma.Vec3{X: (pos.X - l.origin) / l.dx}
}

// lineWeights resolves a logical coordinate into the left node index
// and the fractional distance toward the right node.
func (l *Line) lineWeights(lc float64) (int, float64, error) {
	if lc < 0 || lc > float64(l.nodes-1) {
		return 0, 0, fmt.Errorf("logical coordinate %g outside %d-node line: %w",
			lc, l.nodes, plasma.ErrOutOfDomain)
	}
	i := int(lc)
	if i == l.nodes-1 {
		i--
	}
	return i, lc - float64(i), nil
}

// Gather interpolates a node field at the logical coordinate with
// linear weights.
func (l *Line) Gather(field []float64, lc float64) (float64, error) {
	i, t, err := l.lineWeights(lc)
	if err != nil {
		return 0, err
	}
	return field[i]*(1-t) + field[i+1]*t, nil
}

// Scatter spreads val onto the two enclosing nodes with the same
// weights Gather uses.
func (l *Line) Scatter(field []float64, lc float64, val float64) error {
	i, t, err := l.lineWeights(lc)
	if err != nil {
		return err
	}
	field[i] += val * (1 - t)
	field[i+1] += val * t
	return nil
}

// FieldAt interpolates the electric field at a physical position,
// returned as the x component of a vector.
func (l *Line) FieldAt(pos plasma.Vec3) (plasma.Vec3, error) {
	ex, err := l.Gather(l.Ef, l.Logical(pos).X)
	if err != nil {
		return plasma.Vec3{}, err
	}
	return plasma.Vec3{X: ex}, nil
}

// Bounds returns the physical extent on the x axis; the y and z axes
// are degenerate.
func (l *Line) Bounds() (lo, hi plasma.Vec3) {
	return plasma.Vec3{X: l.origin}, plasma.Vec3{X: l.maxBound}
}
