// Package analogy implements gnosis's graph-pattern matcher: given a
// template of N entities whose signatures describe how they relate to
// each other, it finds every other N-tuple of entities related the same
// way.
//
// © 2025 gnosis authors. MIT License.
package analogy

import (
	"github.com/Voskan/gnosis/internal/arena"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// Analogy runs pattern matches against one Gnosis graph. It holds no
// mutable state of its own beyond configuration and metrics; all graph
// state lives in the wrapped *gnosis.Gnosis.
type Analogy struct {
	cfg     *config
	gn      *gnosis.Gnosis
	metrics metricsSink
	pool    *arena.Pool
}

// New constructs an Analogy bound to g. The default worker count is 3,
// matching the reference matcher's default thread pool.
func New(g *gnosis.Gnosis, opts ...Option) (*Analogy, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	return &Analogy{
		cfg:     cfg,
		gn:      g,
		metrics: newMetricsSink(cfg.registry),
		pool:    arena.NewPool(cfg.threads * 2),
	}, nil
}
