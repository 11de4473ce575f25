package plasma

// Diagnostics is the per-step scalar record the driver computes after
// every push. Energies are reported in electron volts.
type Diagnostics struct {
	Step      int
	Time      float64
	Kinetic   float64
	Potential float64
	// Position and Velocity belong to the representative particle
	// (the first particle of the first species).
	Position Vec3
	Velocity Vec3
	// SolveConverged and SolveIterations report the field solve that
	// produced this step. The driver fills them in.
	SolveConverged  bool
	SolveIterations int
}

// Total returns kinetic plus potential energy in eV.
func (d Diagnostics) Total() float64 {
	return d.Kinetic + d.Potential
}

// NamedField pairs a node array with the name it is serialized under.
type NamedField struct {
	Name string
	Data []float64
}

// Snapshot is a read-only copy of the mesh state at one step, handed to
// output collaborators. The core has no knowledge of how it is encoded.
type Snapshot struct {
	Step    int
	Origin  Vec3
	Spacing [3]float64
	// Dims holds node counts per axis.
	Dims [3]int

	NodeVolumes   []float64
	Potential     []float64
	ChargeDensity []float64
	// Densities holds one number-density array per species.
	Densities []NamedField
	// Field holds the electric field, one vector per node.
	Field []Vec3
}

// Observer receives diagnostics at each completed step.
type Observer interface {
	OnStep(d Diagnostics)
}

// SnapshotWriter receives mesh snapshots at the configured cadence.
// Write failures are surfaced by the driver but never halt the run.
type SnapshotWriter interface {
	WriteSnapshot(s *Snapshot) error
}

// Metric accumulates a named scalar over the diagnostics stream.
type Metric interface {
	Name() string
	Observe(d Diagnostics)
	Value() float64
	Reset()
}
