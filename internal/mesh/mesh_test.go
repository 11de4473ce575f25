package mesh

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/espic/internal/plasma"
)

func testBox(t *testing.T) *Box {
	t.Helper()
	b, err := NewBox(
		plasma.NewVec3(-0.1, -0.1, -0.1),
		plasma.NewVec3(0.1, 0.1, 0.2),
		Dimensions{X: 5, Y: 5, Z: 5},
	)
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	return b
}

func TestScatterConservesCharge(t *testing.T) {
	f := NewScalarField(Dimensions{X: 5, Y: 5, Z: 5})
	rng := rand.New(rand.NewSource(11))

	positions := []plasma.Vec3{
		{X: 1.5, Y: 2.25, Z: 3.75}, // interior
		{X: 0, Y: 0, Z: 0},         // corner node
		{X: 4, Y: 4, Z: 4},         // opposite corner, exact upper bound
		{X: 2, Y: 1, Z: 3},         // exact node
	}
	for i := 0; i < 20; i++ {
		positions = append(positions, plasma.Vec3{
			X: rng.Float64() * 4,
			Y: rng.Float64() * 4,
			Z: rng.Float64() * 4,
		})
	}

	total := 0.0
	for n, lc := range positions {
		f.Clear()
		if err := f.Scatter(lc, 1.0); err != nil {
			t.Fatalf("%d) Scatter(%v): %v", n, lc, err)
		}
		total = floats.Sum(f.Data())
		if math.Abs(total-1.0) > 1e-9 {
			t.Errorf("%d) deposited charge %.12f at %v, want 1", n, total, lc)
		}
	}
}

func TestGatherMatchesScatterWeights(t *testing.T) {
	// A stationary particle in a field produced only by itself must see
	// a symmetric contribution: gather at the scatter position returns
	// the same weighted combination, so a uniform field gathers exactly.
	f := NewScalarField(Dimensions{X: 4, Y: 4, Z: 4})
	for i := range f.Data() {
		f.Data()[i] = 7.25
	}

	rng := rand.New(rand.NewSource(3))
	for n := 0; n < 25; n++ {
		lc := plasma.Vec3{
			X: rng.Float64() * 3,
			Y: rng.Float64() * 3,
			Z: rng.Float64() * 3,
		}
		got, err := f.Gather(lc)
		if err != nil {
			t.Fatalf("%d) Gather(%v): %v", n, lc, err)
		}
		if math.Abs(got-7.25) > 1e-12 {
			t.Errorf("%d) uniform field gathered %.15f at %v, want 7.25", n, got, lc)
		}
	}
}

func TestGatherLinearField(t *testing.T) {
	// A field linear in x is reproduced exactly by linear weights.
	f := NewScalarField(Dimensions{X: 6, Y: 3, Z: 3})
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 6; i++ {
				f.Set(i, j, k, 2.0*float64(i)-1.0)
			}
		}
	}

	got, err := f.Gather(plasma.Vec3{X: 2.75, Y: 1.0, Z: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if want := 2.0*2.75 - 1.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("gathered %.12f, want %.12f", got, want)
	}
}

func TestOutOfDomainRejected(t *testing.T) {
	f := NewScalarField(Dimensions{X: 4, Y: 4, Z: 4})

	bad := []plasma.Vec3{
		{X: -0.01, Y: 1, Z: 1},
		{X: 3.01, Y: 1, Z: 1},
		{X: 1, Y: -2, Z: 1},
		{X: 1, Y: 1, Z: 5},
	}
	for n, lc := range bad {
		if err := f.Scatter(lc, 1.0); !errors.Is(err, plasma.ErrOutOfDomain) {
			t.Errorf("%d) Scatter(%v) err = %v, want ErrOutOfDomain", n, lc, err)
		}
		if _, err := f.Gather(lc); !errors.Is(err, plasma.ErrOutOfDomain) {
			t.Errorf("%d) Gather(%v) err = %v, want ErrOutOfDomain", n, lc, err)
		}
	}
}

func TestNodeVolumes(t *testing.T) {
	b := testBox(t)
	sp := b.Spacing()
	cell := sp[0] * sp[1] * sp[2]

	table := []struct {
		i, j, k int
		want    float64
	}{
		{2, 2, 2, cell},        // interior
		{0, 2, 2, cell / 2},    // face
		{0, 0, 2, cell / 4},    // edge
		{0, 0, 0, cell / 8},    // corner
		{4, 4, 4, cell / 8},    // opposite corner
		{2, 4, 2, cell / 2},    // upper face
	}
	for n, tc := range table {
		got := b.NodeVolumes.At(tc.i, tc.j, tc.k)
		if math.Abs(got-tc.want) > 1e-18 {
			t.Errorf("%d) volume at (%d,%d,%d) = %g, want %g", n, tc.i, tc.j, tc.k, got, tc.want)
		}
	}

	// All node volumes must sum to the domain volume.
	lo, hi := b.Bounds()
	d := hi.Sub(lo)
	if got, want := floats.Sum(b.NodeVolumes.Data()), d.X*d.Y*d.Z; math.Abs(got-want) > 1e-12*want {
		t.Errorf("total node volume %g, want %g", got, want)
	}
}

func TestBoxLogicalRoundTrip(t *testing.T) {
	b := testBox(t)
	lc := b.Logical(b.Centroid())
	if math.Abs(lc.X-2) > 1e-12 || math.Abs(lc.Y-2) > 1e-12 || math.Abs(lc.Z-2) > 1e-12 {
		t.Errorf("centroid logical coordinate %v, want (2,2,2)", lc)
	}

	lc = b.Logical(b.Origin())
	if !lc.IsZero() {
		t.Errorf("origin logical coordinate %v, want zero", lc)
	}
}

func TestLineGatherScatter(t *testing.T) {
	l, err := NewLine(0, 0.1, 21)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(l.Dx()-0.005) > 1e-15 {
		t.Fatalf("dx = %g, want 0.005", l.Dx())
	}

	// Scatter at a quarter of the way into cell 4.
	if err := l.Scatter(l.Rho, 4.25, 8.0); err != nil {
		t.Fatal(err)
	}
	if math.Abs(l.Rho[4]-6.0) > 1e-12 || math.Abs(l.Rho[5]-2.0) > 1e-12 {
		t.Errorf("scatter split %g/%g, want 6/2", l.Rho[4], l.Rho[5])
	}
	if got := floats.Sum(l.Rho); math.Abs(got-8.0) > 1e-12 {
		t.Errorf("total deposited %g, want 8", got)
	}

	// Gather of a linear field is exact.
	for i := range l.Phi {
		l.Phi[i] = 3.0 * float64(i)
	}
	got, err := l.Gather(l.Phi, 7.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-22.5) > 1e-12 {
		t.Errorf("gathered %g, want 22.5", got)
	}

	if _, err := l.Gather(l.Phi, 20.001); !errors.Is(err, plasma.ErrOutOfDomain) {
		t.Errorf("gather past end err = %v, want ErrOutOfDomain", err)
	}
}

func TestNewBoxValidation(t *testing.T) {
	_, err := NewBox(plasma.NewVec3(0, 0, 0), plasma.NewVec3(1, 1, 1), Dimensions{X: 2, Y: 5, Z: 5})
	if !errors.Is(err, plasma.ErrInvalidConfig) {
		t.Errorf("2-node axis err = %v, want ErrInvalidConfig", err)
	}

	_, err = NewBox(plasma.NewVec3(0, 0, 0), plasma.NewVec3(-1, 1, 1), Dimensions{X: 5, Y: 5, Z: 5})
	if !errors.Is(err, plasma.ErrInvalidConfig) {
		t.Errorf("inverted bound err = %v, want ErrInvalidConfig", err)
	}
}

func BenchmarkScatter(b *testing.B) {
	f := NewScalarField(Dimensions{X: 21, Y: 21, Z: 21})
	rng := rand.New(rand.NewSource(1))
	pts := make([]plasma.Vec3, 1000)
	for i := range pts {
		pts[i] = plasma.Vec3{
			X: rng.Float64() * 20,
			Y: rng.Float64() * 20,
			Z: rng.Float64() * 20,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Scatter(pts[i%len(pts)], 1.0)
	}
}

func BenchmarkGatherVector(b *testing.B) {
	f := NewVectorField(Dimensions{X: 21, Y: 21, Z: 21})
	rng := rand.New(rand.NewSource(2))
	pts := make([]plasma.Vec3, 1000)
	for i := range pts {
		pts[i] = plasma.Vec3{
			X: rng.Float64() * 20,
			Y: rng.Float64() * 20,
			Z: rng.Float64() * 20,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Gather(pts[i%len(pts)])
	}
}
