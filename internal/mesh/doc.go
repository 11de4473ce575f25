// Package mesh provides the spatial grids particles are weighted onto.
//
// Two grid types cover the simulator's scenarios:
//
//   - [Line]: a 1-D lattice of nodes with scalar field arrays
//   - [Box]: a 3-D rectangular lattice with scalar and vector fields
//
// Both use linear (area/volume weighted) interpolation for the
// particle-to-grid scatter and the grid-to-particle gather, with
// identical weights in each direction. Positions outside the domain are
// rejected with [plasma.ErrOutOfDomain]; detecting them here rather
// than silently dropping the contribution turns boundary-policy bugs
// into hard failures.
//
// Grid geometry is immutable after construction. Field arrays are
// zeroed and recomputed every timestep by the owning system.
package mesh
