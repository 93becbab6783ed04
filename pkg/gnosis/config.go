package gnosis

// config.go defines the internal configuration object and the set of
// functional options New accepts. Unlike the teacher's generic cache
// config, Gnosis has no caller-chosen key/value types to parametrise, so
// Option is a plain function rather than a generic one — but the shape
// (defaultConfig, applyOptions, sentinel validation errors) is unchanged.
//
// © 2025 gnosis authors. MIT License.

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Gnosis instance at construction time.
type Option func(*config)

type config struct {
	shards       int
	identityMask uint32 // W': how many low bits of a random draw form a candidate id
	maxRetries   int    // widening attempts before Entity gives up
	arenaSlots   int

	registry *prometheus.Registry
	logger   *zap.Logger
}

func defaultConfig() *config {
	return &config{
		shards:       8,
		identityMask: 1<<24 - 1, // 24-bit pool by default, matches the reference implementation
		maxRetries:   6,
		arenaSlots:   8,
		logger:       zap.NewNop(),
	}
}

// WithShards sets the number of shards the entity table is partitioned
// into. Must be a power of two; default is 8.
func WithShards(n int) Option {
	return func(c *config) { c.shards = n }
}

// WithIdentityBits sets how many low bits of a drawn random value form a
// candidate identity, i.e. the size of the identity pool new entities are
// drawn from. Default is 24 (matches the reference vocabulary's frozen
// congenital ids, all of which fit in 24 bits).
func WithIdentityBits(bits int) Option {
	return func(c *config) {
		if bits > 0 && bits < 32 {
			c.identityMask = 1<<uint(bits) - 1
		}
	}
}

// WithMaxRetries bounds how many times Entity widens its search before
// reporting the identity pool exhausted.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithArenaSlots sizes the request-scoped arena pool backing Select and
// the pattern matcher. The arena package builds only with
// GOEXPERIMENT=arenas, so the module as a whole requires that setting.
func WithArenaSlots(n int) Option {
	return func(c *config) { c.arenaSlots = n }
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. Gnosis never logs on the Incl
// / Excl hot path; it logs startup, Save/Load, identity-pool exhaustion
// (Error) and Forget (Debug).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.shards <= 0 || (cfg.shards&(cfg.shards-1)) != 0 {
		return errInvalidShards
	}
	if cfg.maxRetries <= 0 {
		return errInvalidRetries
	}
	return nil
}

var (
	errInvalidShards  = errors.New("gnosis: shards must be power-of-two and > 0")
	errInvalidRetries = errors.New("gnosis: max retries must be > 0")
)
