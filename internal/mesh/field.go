package mesh

import (
	"fmt"

	"github.com/san-kum/espic/internal/plasma"
)

// Dimensions holds node counts per axis.
type Dimensions struct {
	X, Y, Z int
}

func (d Dimensions) Nodes() int {
	return d.X * d.Y * d.Z
}

// ScalarField is a node-indexed scalar array over a 3-D lattice.
// Data is stored flat, x-fastest: index = i + X*(j + Y*k).
type ScalarField struct {
	dims Dimensions
	data []float64
}

func NewScalarField(dims Dimensions) *ScalarField {
	return &ScalarField{
		dims: dims,
		data: make([]float64, dims.Nodes()),
	}
}

func (f *ScalarField) Dims() Dimensions { return f.dims }

// Data returns the underlying flat array. Callers in the solver mutate
// it in place; everyone else should treat it as read-only.
func (f *ScalarField) Data() []float64 { return f.data }

func (f *ScalarField) idx(i, j, k int) int {
	return i + f.dims.X*(j+f.dims.Y*k)
}

func (f *ScalarField) At(i, j, k int) float64 {
	return f.data[f.idx(i, j, k)]
}

func (f *ScalarField) Set(i, j, k int, v float64) {
	f.data[f.idx(i, j, k)] = v
}

func (f *ScalarField) AddAt(i, j, k int, v float64) {
	f.data[f.idx(i, j, k)] += v
}

func (f *ScalarField) Clear() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Copy returns a fresh copy of the flat data, for snapshots.
func (f *ScalarField) Copy() []float64 {
	c := make([]float64, len(f.data))
	copy(c, f.data)
	return c
}

// DivideBy divides each node by the corresponding node of other.
// Used to turn scattered macroparticle weight into number density.
func (f *ScalarField) DivideBy(other *ScalarField) error {
	if f.dims != other.dims {
		return fmt.Errorf("mesh: dimension mismatch %v vs %v", f.dims, other.dims)
	}
	for i := range f.data {
		f.data[i] /= other.data[i]
	}
	return nil
}

// AddScaled accumulates c*other into f, node by node.
func (f *ScalarField) AddScaled(other *ScalarField, c float64) error {
	if f.dims != other.dims {
		return fmt.Errorf("mesh: dimension mismatch %v vs %v", f.dims, other.dims)
	}
	for i := range f.data {
		f.data[i] += c * other.data[i]
	}
	return nil
}

// cellWeights resolves a logical coordinate into the enclosing cell's
// base node and the fractional distances along each axis. A coordinate
// exactly on the upper boundary folds into the last cell with a
// fractional distance of 1.
func cellWeights(lc plasma.Vec3, dims Dimensions) (i, j, k int, di, dj, dk float64, err error) {
	if lc.X < 0 || lc.X > float64(dims.X-1) ||
		lc.Y < 0 || lc.Y > float64(dims.Y-1) ||
		lc.Z < 0 || lc.Z > float64(dims.Z-1) {
		return 0, 0, 0, 0, 0, 0,
			fmt.Errorf("logical coordinate (%g, %g, %g) outside %dx%dx%d grid: %w",
				lc.X, lc.Y, lc.Z, dims.X, dims.Y, dims.Z, plasma.ErrOutOfDomain)
	}

	i, j, k = int(lc.X), int(lc.Y), int(lc.Z)
	if i == dims.X-1 {
		i--
	}
	if j == dims.Y-1 {
		j--
	}
	if k == dims.Z-1 {
		k--
	}
	di = lc.X - float64(i)
	dj = lc.Y - float64(j)
	dk = lc.Z - float64(k)
	return i, j, k, di, dj, dk, nil
}

// Scatter spreads val onto the eight nodes enclosing the logical
// coordinate, weighted by trilinear fractions. The weights sum to one,
// so the total deposited amount equals val exactly.
func (f *ScalarField) Scatter(lc plasma.Vec3, val float64) error {
	i, j, k, di, dj, dk, err := cellWeights(lc, f.dims)
	if err != nil {
		return err
	}

	f.AddAt(i, j, k, val*(1-di)*(1-dj)*(1-dk))
	f.AddAt(i+1, j, k, val*di*(1-dj)*(1-dk))
	f.AddAt(i, j+1, k, val*(1-di)*dj*(1-dk))
	f.AddAt(i+1, j+1, k, val*di*dj*(1-dk))
	f.AddAt(i, j, k+1, val*(1-di)*(1-dj)*dk)
	f.AddAt(i+1, j, k+1, val*di*(1-dj)*dk)
	f.AddAt(i, j+1, k+1, val*(1-di)*dj*dk)
	f.AddAt(i+1, j+1, k+1, val*di*dj*dk)
	return nil
}

// Gather interpolates the field at the logical coordinate with the same
// trilinear weights Scatter uses.
func (f *ScalarField) Gather(lc plasma.Vec3) (float64, error) {
	i, j, k, di, dj, dk, err := cellWeights(lc, f.dims)
	if err != nil {
		return 0, err
	}

	return f.At(i, j, k)*(1-di)*(1-dj)*(1-dk) +
		f.At(i+1, j, k)*di*(1-dj)*(1-dk) +
		f.At(i, j+1, k)*(1-di)*dj*(1-dk) +
		f.At(i+1, j+1, k)*di*dj*(1-dk) +
		f.At(i, j, k+1)*(1-di)*(1-dj)*dk +
		f.At(i+1, j, k+1)*di*(1-dj)*dk +
		f.At(i, j+1, k+1)*(1-di)*dj*dk +
		f.At(i+1, j+1, k+1)*di*dj*dk, nil
}

// VectorField is a node-indexed vector array over a 3-D lattice, with
// the same flat layout as ScalarField.
type VectorField struct {
	dims Dimensions
	data []plasma.Vec3
}

func NewVectorField(dims Dimensions) *VectorField {
	return &VectorField{
		dims: dims,
		data: make([]plasma.Vec3, dims.Nodes()),
	}
}

func (f *VectorField) Dims() Dimensions { return f.dims }

func (f *VectorField) Data() []plasma.Vec3 { return f.data }

func (f *VectorField) idx(i, j, k int) int {
	return i + f.dims.X*(j+f.dims.Y*k)
}

func (f *VectorField) At(i, j, k int) plasma.Vec3 {
	return f.data[f.idx(i, j, k)]
}

func (f *VectorField) Set(i, j, k int, v plasma.Vec3) {
	f.data[f.idx(i, j, k)] = v
}

func (f *VectorField) Clear() {
	for i := range f.data {
		f.data[i] = plasma.Vec3{}
	}
}

func (f *VectorField) Copy() []plasma.Vec3 {
	c := make([]plasma.Vec3, len(f.data))
	copy(c, f.data)
	return c
}

// Gather interpolates the vector field at the logical coordinate.
func (f *VectorField) Gather(lc plasma.Vec3) (plasma.Vec3, error) {
	i, j, k, di, dj, dk, err := cellWeights(lc, f.dims)
	if err != nil {
		return plasma.Vec3{}, err
	}

	v := f.At(i, j, k).Scale((1 - di) * (1 - dj) * (1 - dk))
	v = v.Add(f.At(i+1, j, k).Scale(di * (1 - dj) * (1 - dk)))
	v = v.Add(f.At(i, j+1, k).Scale((1 - di) * dj * (1 - dk)))
	v = v.Add(f.At(i+1, j+1, k).Scale(di * dj * (1 - dk)))
	v = v.Add(f.At(i, j, k+1).Scale((1 - di) * (1 - dj) * dk))
	v = v.Add(f.At(i+1, j, k+1).Scale(di * (1 - dj) * dk))
	v = v.Add(f.At(i, j+1, k+1).Scale((1 - di) * dj * dk))
	v = v.Add(f.At(i+1, j+1, k+1).Scale(di * dj * dk))
	return v, nil
}
