package plasma

import (
	"errors"
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	u := NewVec3(3.0, -4.0, 5.5)
	v := NewVec3(1.0, 8.0, -0.5)

	if got := u.Add(v); got != (Vec3{4.0, 4.0, 5.0}) {
		t.Errorf("Add: got %v", got)
	}
	if got := u.Sub(v); got != (Vec3{2.0, -12.0, 6.0}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := u.Mul(v); got != (Vec3{3.0, -32.0, -2.75}) {
		t.Errorf("Mul: got %v", got)
	}
	if got := u.Div(v); got != (Vec3{3.0, -0.5, -11.0}) {
		t.Errorf("Div: got %v", got)
	}
	if got := u.Scale(3.0); got != (Vec3{9.0, -12.0, 16.5}) {
		t.Errorf("Scale: got %v", got)
	}
}

func TestVec3Norm(t *testing.T) {
	v := NewVec3(3.0, 4.0, 0.0)
	if math.Abs(v.Norm()-5.0) > 1e-12 {
		t.Errorf("expected norm 5, got %f", v.Norm())
	}
	if v.NormSq() != 25.0 {
		t.Errorf("expected norm squared 25, got %f", v.NormSq())
	}
	if !NewVec3(0, 0, 0).IsZero() {
		t.Error("zero vector not reported as zero")
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	err := &StepError{Step: 7, Species: "e-", Particle: 3, Wrapped: ErrOutOfDomain}
	if !errors.Is(err, ErrOutOfDomain) {
		t.Error("StepError should unwrap to ErrOutOfDomain")
	}
}
