package plasma

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrOutOfDomain indicates a particle position outside the mesh was
	// passed to deposition or interpolation. This always signals a
	// boundary-policy defect upstream and is fatal.
	ErrOutOfDomain = errors.New("plasma: position outside mesh domain")

	// ErrNotConverged indicates the potential solver reached its
	// iteration cap without meeting the residual tolerance.
	ErrNotConverged = errors.New("plasma: potential solver did not converge")

	// ErrInvalidConfig indicates a configuration value that prevents the
	// run from starting.
	ErrInvalidConfig = errors.New("plasma: invalid configuration")

	// ErrDriverState indicates a driver method was called in the wrong
	// lifecycle state.
	ErrDriverState = errors.New("plasma: driver in wrong state")
)

// StepError wraps an error with the step, species and particle that
// raised it.
type StepError struct {
	Step     int
	Species  string
	Particle int
	Wrapped  error
}

func (e *StepError) Error() string {
	if e.Species == "" {
		return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
	}
	return fmt.Sprintf("step %d: species %s particle %d: %v",
		e.Step, e.Species, e.Particle, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
