package scenario

import (
	"fmt"
	"sort"

	"github.com/san-kum/espic/internal/metrics"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/sim"
)

// Builder constructs a scenario with its default settings, returning
// the system and the driver config it is meant to run under.
type Builder func() (sim.System, sim.Config, error)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}

	r.builders["well"] = func() (sim.System, sim.Config, error) {
		cfg := DefaultWellConfig()
		sys, err := NewWell(cfg)
		return sys, sim.Config{Dt: cfg.Dt, Steps: 5000}, err
	}
	r.builders["box"] = func() (sim.System, sim.Config, error) {
		cfg := DefaultBoxConfig()
		sys, err := NewGroundedBox(cfg)
		return sys, sim.Config{Dt: cfg.Dt, Steps: 400, SnapshotEvery: 25}, err
	}

	return r
}

func (r *Registry) Build(name string) (sim.System, sim.Config, error) {
	fn, ok := r.builders[name]
	if !ok {
		return nil, sim.Config{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return fn()
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the standard metric set attached to every run.
func (r *Registry) DefaultMetrics() []plasma.Metric {
	return []plasma.Metric{
		metrics.NewEnergyDrift(),
		metrics.NewMeanKinetic(),
		metrics.NewPeakDisplacement(),
	}
}
