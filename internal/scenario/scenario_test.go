package scenario

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/espic/internal/mesh"
	"github.com/san-kum/espic/internal/metrics"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/sim"
	"github.com/san-kum/espic/internal/species"
)

func runWell(t *testing.T, steps int) (*Well, *sim.Result) {
	t.Helper()
	cfg := DefaultWellConfig()
	w, err := NewWell(cfg)
	if err != nil {
		t.Fatalf("NewWell: %v", err)
	}

	d := sim.New(w)
	result, err := d.Run(context.Background(), sim.Config{Dt: cfg.Dt, Steps: steps})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return w, result
}

func TestWellElectronStaysBound(t *testing.T) {
	w, result := runWell(t, 3000)

	lo := w.Line().Origin()
	hi := w.Line().MaxBound()
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, d := range result.Trace {
		minX = math.Min(minX, d.Position.X)
		maxX = math.Max(maxX, d.Position.X)
	}
	if minX < lo || maxX > hi {
		t.Fatalf("electron left the domain: [%g, %g] outside [%g, %g]", minX, maxX, lo, hi)
	}

	// Released at 0.02 m in a well centered at 0.05 m, the electron
	// should sweep symmetrically to about 0.08 m and back.
	if maxX < 0.07 {
		t.Errorf("electron never crossed the well: max x = %g", maxX)
	}
	if minX > 0.025 {
		t.Errorf("electron never returned: min x = %g", minX)
	}
}

func TestWellOscillatesAtPlasmaFrequency(t *testing.T) {
	cfg := DefaultWellConfig()
	_, result := runWell(t, 3000)

	center := (cfg.Origin + cfg.MaxBound) / 2
	var crossings []int
	prev := result.Trace[0].Position.X
	for _, d := range result.Trace[1:] {
		if prev < center && d.Position.X >= center {
			crossings = append(crossings, d.Step)
		}
		prev = d.Position.X
	}
	if len(crossings) < 2 {
		t.Fatalf("found %d upward center crossings, need 2", len(crossings))
	}

	measured := float64(crossings[1]-crossings[0]) * cfg.Dt

	omega := math.Sqrt(cfg.BackgroundDensity *
		plasma.ElementaryCharge * plasma.ElementaryCharge /
		(plasma.Permittivity * plasma.ElectronMass))
	expected := 2 * math.Pi / omega

	if rel := math.Abs(measured-expected) / expected; rel > 0.05 {
		t.Errorf("period = %g s, want %g s within 5%% (off by %.1f%%)",
			measured, expected, rel*100)
	}
}

func TestWellConservesEnergy(t *testing.T) {
	cfg := DefaultWellConfig()
	w, err := NewWell(cfg)
	if err != nil {
		t.Fatalf("NewWell: %v", err)
	}

	drift := metrics.NewEnergyDrift()
	d := sim.New(w)
	d.AddMetric(drift)

	result, err := d.Run(context.Background(), sim.Config{Dt: cfg.Dt, Steps: 5000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.Metrics[drift.Name()]; got > 0.01 {
		t.Errorf("energy drift = %.4f over 5000 steps, want <= 1%%", got)
	}
	if result.SolveFailures != 0 {
		t.Errorf("solve failures = %d", result.SolveFailures)
	}
}

func TestWellInitialEnergyIsPotential(t *testing.T) {
	_, result := runWell(t, 1)
	first := result.Trace[0]

	// One step in, the electron has barely moved: total energy is
	// still essentially the release-point potential energy, which for
	// the default well is a few eV.
	if first.Potential < 1 || first.Potential > 30 {
		t.Errorf("initial potential energy = %g eV, want a few eV", first.Potential)
	}
	if first.Kinetic > first.Potential/10 {
		t.Errorf("initial kinetic %g eV not small next to potential %g eV",
			first.Kinetic, first.Potential)
	}
}

func TestWellRejectsBadConfig(t *testing.T) {
	cfg := DefaultWellConfig()
	cfg.StartNode = 100
	if _, err := NewWell(cfg); err == nil {
		t.Error("expected error for start node outside mesh")
	}

	cfg = DefaultWellConfig()
	cfg.BackgroundDensity = -1
	if _, err := NewWell(cfg); err == nil {
		t.Error("expected error for negative background density")
	}
}

// smallBoxConfig keeps the 3-D tests cheap: a coarse symmetric cube
// with a reduced electron count.
func smallBoxConfig() BoxConfig {
	cfg := DefaultBoxConfig()
	cfg.Origin = plasma.Vec3{X: -0.1, Y: -0.1, Z: -0.1}
	cfg.MaxBound = plasma.Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	cfg.Dims = mesh.Dimensions{X: 11, Y: 11, Z: 11}
	cfg.ElectronCount = 2000
	cfg.Solver.Tolerance = 1e-5
	return cfg
}

func TestGroundedBoxChargeDeposition(t *testing.T) {
	cfg := smallBoxConfig()
	g, err := NewGroundedBox(cfg)
	if err != nil {
		t.Fatalf("NewGroundedBox: %v", err)
	}

	ions, electrons := g.Populations()[0], g.Populations()[1]
	d := cfg.MaxBound.Sub(cfg.Origin)
	volume := d.X * d.Y * d.Z

	wantIon := cfg.IonDensity * volume
	if got := totalWeight(ions.Particles); math.Abs(got-wantIon) > 1e-9*wantIon {
		t.Errorf("ion weight = %g, want %g", got, wantIon)
	}
	wantEl := cfg.ElectronDensity * volume / 8
	if got := totalWeight(electrons.Particles); math.Abs(got-wantEl) > 1e-9*wantEl {
		t.Errorf("electron weight = %g, want %g", got, wantEl)
	}

	// Scatter and the density division conserve total charge: density
	// times node volume sums back to the deposited weight.
	box := g.Box()
	total := 0.0
	for i, rho := range box.Rho.Data() {
		total += rho * box.NodeVolumes.Data()[i]
	}
	wantCharge := plasma.ElementaryCharge * (wantIon - wantEl)
	if math.Abs(total-wantCharge) > 1e-6*math.Abs(wantCharge) {
		t.Errorf("deposited charge = %g C, want %g C", total, wantCharge)
	}
}

func TestGroundedBoxFieldEnergy(t *testing.T) {
	g, err := NewGroundedBox(smallBoxConfig())
	if err != nil {
		t.Fatalf("NewGroundedBox: %v", err)
	}

	d := g.Diagnose(1, 2e-10)

	// Field energy is the vacuum-permittivity-weighted sum of |E|^2
	// over node volumes, reported in eV.
	box := g.Box()
	want := 0.0
	for i, e := range box.Ef.Data() {
		want += e.NormSq() * box.NodeVolumes.Data()[i]
	}
	want *= 0.5 * plasma.Permittivity / plasma.ElementaryCharge

	if want == 0 {
		t.Fatal("field energy is zero after the initial solve")
	}
	if math.Abs(d.Potential-want) > 1e-12*want {
		t.Errorf("potential energy = %g eV, want %g eV", d.Potential, want)
	}
}

func TestGroundedBoxElectronsSpread(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-step 3-D run")
	}

	cfg := smallBoxConfig()
	cfg.Dt = 1e-9
	g, err := NewGroundedBox(cfg)
	if err != nil {
		t.Fatalf("NewGroundedBox: %v", err)
	}

	electrons := g.Populations()[1]
	centroid := g.Box().Centroid()
	before := fractionOutsideOctant(electrons.Particles, centroid)
	if before != 0 {
		t.Fatalf("%.2f of electrons outside the octant before the run", before)
	}

	d := sim.New(g)
	result, err := d.Run(context.Background(), sim.Config{Dt: cfg.Dt, Steps: 120})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StepsTaken != 120 {
		t.Fatalf("StepsTaken = %d", result.StepsTaken)
	}

	after := fractionOutsideOctant(electrons.Particles, centroid)
	if after < 0.1 {
		t.Errorf("electrons did not spread: %.2f outside the octant", after)
	}

	lo, hi := g.Box().Bounds()
	for i, p := range electrons.Particles {
		if p.Position.X < lo.X || p.Position.X > hi.X ||
			p.Position.Y < lo.Y || p.Position.Y > hi.Y ||
			p.Position.Z < lo.Z || p.Position.Z > hi.Z {
			t.Fatalf("electron %d escaped to %v", i, p.Position)
		}
	}
}

func TestGroundedBoxSnapshot(t *testing.T) {
	g, err := NewGroundedBox(smallBoxConfig())
	if err != nil {
		t.Fatalf("NewGroundedBox: %v", err)
	}

	snap := g.Snapshot(7)
	if snap.Step != 7 {
		t.Errorf("Step = %d", snap.Step)
	}
	if len(snap.Densities) != 2 {
		t.Fatalf("Densities = %d, want one per species", len(snap.Densities))
	}
	if snap.Densities[0].Name != "nd.O+" || snap.Densities[1].Name != "nd.e-" {
		t.Errorf("density names = %q, %q", snap.Densities[0].Name, snap.Densities[1].Name)
	}
	nodes := snap.Dims[0] * snap.Dims[1] * snap.Dims[2]
	if len(snap.Potential) != nodes || len(snap.Field) != nodes {
		t.Errorf("snapshot arrays do not match %d nodes", nodes)
	}
	if floats.Sum(snap.Densities[0].Data) == 0 {
		t.Error("ion density snapshot is empty")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	got := r.List()
	want := []string{"box", "well"}
	if len(got) != len(want) {
		t.Fatalf("List = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, _, err := r.Build("tokamak"); err == nil {
		t.Error("expected error for unknown scenario")
	}

	sys, cfg, err := r.Build("well")
	if err != nil {
		t.Fatalf("Build(well): %v", err)
	}
	if sys.Name() != "well" || cfg.Steps != 5000 {
		t.Errorf("sys = %q, steps = %d", sys.Name(), cfg.Steps)
	}

	if len(r.DefaultMetrics()) == 0 {
		t.Error("no default metrics")
	}
}

func totalWeight(ps []species.Particle) float64 {
	sum := 0.0
	for _, p := range ps {
		sum += p.Weight
	}
	return sum
}

func fractionOutsideOctant(ps []species.Particle, hi plasma.Vec3) float64 {
	out := 0
	for _, p := range ps {
		if p.Position.X > hi.X || p.Position.Y > hi.Y || p.Position.Z > hi.Z {
			out++
		}
	}
	return float64(out) / float64(len(ps))
}
