package metrics

import (
	"math"

	"github.com/san-kum/espic/internal/plasma"
)

// PeakDisplacement tracks how far the traced particle travels from its
// position on the first observed step.
type PeakDisplacement struct {
	name    string
	origin  plasma.Vec3
	max     float64
	samples int
}

func NewPeakDisplacement() *PeakDisplacement {
	return &PeakDisplacement{name: "peak_displacement"}
}

func (p *PeakDisplacement) Name() string { return p.name }

func (p *PeakDisplacement) Observe(d plasma.Diagnostics) {
	p.samples++
	if p.samples == 1 {
		p.origin = d.Position
		return
	}
	p.max = math.Max(p.max, d.Position.Sub(p.origin).Norm())
}

func (p *PeakDisplacement) Value() float64 {
	return p.max
}

func (p *PeakDisplacement) Reset() {
	p.origin = plasma.Vec3{}
	p.max = 0
	p.samples = 0
}
