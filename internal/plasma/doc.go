// Package plasma provides core primitives shared across the simulator.
//
// The package defines the fundamental types for electrostatic
// particle-in-cell (PIC) simulation:
//
//   - [Vec3]: 3-component vector for positions, velocities and fields
//   - [Diagnostics]: per-step scalar record (energies, representative particle)
//   - [Snapshot]: read-only view of the mesh fields for serialization
//   - [Observer] and [Metric]: hooks the driver feeds each timestep
//
// Physical constants (elementary charge, electron mass, vacuum
// permittivity) live here as well, in SI units.
//
// # Thread Safety
//
// None of the types in this package synchronize access. The simulation
// driver owns all mutable state for the duration of a run.
package plasma
