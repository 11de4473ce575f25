package mesh

import (
	"fmt"

	"github.com/san-kum/espic/internal/plasma"
)

// Box is a fixed-resolution 3-D rectangular lattice holding the node
// fields of one simulation domain: charge density, potential, electric
// field, and per-node cell volumes. Geometry is set at construction and
// never changes.
type Box struct {
	origin   plasma.Vec3
	maxBound plasma.Vec3
	centroid plasma.Vec3
	dims     Dimensions
	spacing  [3]float64

	NodeVolumes *ScalarField
	Rho         *ScalarField
	Phi         *ScalarField
	Ef          *VectorField
}

// NewBox builds a box mesh spanning origin to maxBound with the given
// node counts. Each axis needs at least three nodes for the one-sided
// field stencils at the walls.
func NewBox(origin, maxBound plasma.Vec3, dims Dimensions) (*Box, error) {
	if dims.X < 3 || dims.Y < 3 || dims.Z < 3 {
		return nil, fmt.Errorf("box mesh needs at least 3 nodes per axis, got %dx%dx%d: %w",
			dims.X, dims.Y, dims.Z, plasma.ErrInvalidConfig)
	}
	if maxBound.X <= origin.X || maxBound.Y <= origin.Y || maxBound.Z <= origin.Z {
		return nil, fmt.Errorf("box mesh max bound %v not beyond origin %v: %w",
			maxBound, origin, plasma.ErrInvalidConfig)
	}

	b := &Box{
		origin:   origin,
		maxBound: maxBound,
		centroid: origin.Add(maxBound).Scale(0.5),
		dims:     dims,
		spacing: [3]float64{
			(maxBound.X - origin.X) / float64(dims.X-1),
			(maxBound.Y - origin.Y) / float64(dims.Y-1),
			(maxBound.Z - origin.Z) / float64(dims.Z-1),
		},
		NodeVolumes: NewScalarField(dims),
		Rho:         NewScalarField(dims),
		Phi:         NewScalarField(dims),
		Ef:          NewVectorField(dims),
	}

	b.computeNodeVolumes()
	return b, nil
}

func (b *Box) Origin() plasma.Vec3   { return b.origin }
func (b *Box) MaxBound() plasma.Vec3 { return b.maxBound }
func (b *Box) Centroid() plasma.Vec3 { return b.centroid }
func (b *Box) Dims() Dimensions      { return b.dims }
func (b *Box) Spacing() [3]float64   { return b.spacing }

// Logical converts a physical position into fractional node
// coordinates: node index plus the fractional distance into the cell.
func (b *Box) Logical(pos plasma.Vec3) plasma.Vec3 {
	return plasma.Vec3{
		X: (pos.X - b.origin.X) / b.spacing[0],
		Y: (pos.Y - b.origin.Y) / b.spacing[1],
		Z: (pos.Z - b.origin.Z) / b.spacing[2],
	}
}

// FieldAt interpolates the electric field at a physical position.
func (b *Box) FieldAt(pos plasma.Vec3) (plasma.Vec3, error) {
	return b.Ef.Gather(b.Logical(pos))
}

// Bounds returns the physical extent of the domain.
func (b *Box) Bounds() (lo, hi plasma.Vec3) {
	return b.origin, b.maxBound
}

// Node volumes give the control volume each node represents for number
// density: a full cell volume interior, halved per boundary-touching
// axis.
func (b *Box) computeNodeVolumes() {
	cell := b.spacing[0] * b.spacing[1] * b.spacing[2]
	for k := 0; k < b.dims.Z; k++ {
		for j := 0; j < b.dims.Y; j++ {
			for i := 0; i < b.dims.X; i++ {
				v := cell
				if i == 0 || i == b.dims.X-1 {
					v *= 0.5
				}
				if j == 0 || j == b.dims.Y-1 {
					v *= 0.5
				}
				if k == 0 || k == b.dims.Z-1 {
					v *= 0.5
				}
				b.NodeVolumes.Set(i, j, k, v)
			}
		}
	}
}

// Snapshot copies the mesh state into a read-only view for output
// collaborators. Per-species densities are appended by the caller.
func (b *Box) Snapshot(step int, densities []plasma.NamedField) *plasma.Snapshot {
	return &plasma.Snapshot{
		Step:          step,
		Origin:        b.origin,
		Spacing:       b.spacing,
		Dims:          [3]int{b.dims.X, b.dims.Y, b.dims.Z},
		NodeVolumes:   b.NodeVolumes.Copy(),
		Potential:     b.Phi.Copy(),
		ChargeDensity: b.Rho.Copy(),
		Densities:     densities,
		Field:         b.Ef.Copy(),
	}
}
