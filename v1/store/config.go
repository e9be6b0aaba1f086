package store

import (
	"time"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

// Default values applied by Config.withDefaults for zero fields.
const (
	DefaultMaxRetries         = 3
	DefaultTimeout            = 30 * time.Second
	DefaultInitialRetryDelay  = 100 * time.Millisecond
	DefaultMaxRetryDelay      = 2 * time.Second
	DefaultSlowQueryThreshold = time.Second
	DefaultSlowQueryLogSize   = 100
	DefaultMaxInFlight        = 64
	DefaultMaxBatchSize       = 100
	DefaultRateLimitQueries   = 100
	DefaultRateLimitWindow    = time.Minute
	DefaultRateLimitActors    = 10_000
	DefaultSweepProbability   = 0.01
	DefaultFindLimit          = 100
	DefaultMaxFindLimit       = 1000
)

// DefaultRetryableKinds are the engine error kinds retried when
// Config.RetryableKinds is empty.
var DefaultRetryableKinds = []engine.Kind{
	engine.KindBusy,
	engine.KindLocked,
	engine.KindTimeout,
	engine.KindDeadlock,
	engine.KindSerialization,
}

// Config controls retries, timeouts, rate limiting and result limits of the store.
//
// Every zero value is replaced with its default, so an empty Config is usable.
type Config struct {
	// MaxRetries is the upper bound of attempts per query, including the first one.
	MaxRetries int `koanf:"max_retries"`

	// DefaultTimeout applies to queries that do not set their own timeout.
	DefaultTimeout time.Duration `koanf:"default_timeout"`

	// InitialRetryDelay and MaxRetryDelay shape the exponential backoff
	// between attempts: min(InitialRetryDelay * 2^(n-1), MaxRetryDelay).
	InitialRetryDelay time.Duration `koanf:"initial_retry_delay"`
	MaxRetryDelay     time.Duration `koanf:"max_retry_delay"`

	// RetryableKinds lists the engine error kinds that are retried.
	// Storage engines differ in what they consider transient, so this is
	// configurable per deployment.
	RetryableKinds []string `koanf:"retryable_kinds"`

	// SlowQueryThreshold marks queries as slow; SlowQueryLogSize bounds the
	// in-memory record of slow queries.
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
	SlowQueryLogSize   int           `koanf:"slow_query_log_size"`

	// MaxInFlight bounds concurrently running engine calls, including calls
	// abandoned after a timeout that have not returned yet.
	MaxInFlight int `koanf:"max_in_flight"`

	// MaxBatchSize bounds the number of operations in one transaction.
	MaxBatchSize int `koanf:"max_batch_size"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	// DefaultLimit applies to FindMany calls without a limit; MaxLimit caps any limit.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// RateLimitConfig configures the per-actor sliding window limiter.
type RateLimitConfig struct {
	MaxQueries       int           `koanf:"max_queries"`
	Window           time.Duration `koanf:"window"`
	MaxActors        int           `koanf:"max_actors"`
	SweepProbability float64       `koanf:"sweep_probability"`
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if c.MaxRetryDelay < c.InitialRetryDelay {
		c.MaxRetryDelay = c.InitialRetryDelay
	}
	if len(c.RetryableKinds) == 0 {
		for _, k := range DefaultRetryableKinds {
			c.RetryableKinds = append(c.RetryableKinds, string(k))
		}
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	if c.SlowQueryLogSize <= 0 {
		c.SlowQueryLogSize = DefaultSlowQueryLogSize
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	c.RateLimit = c.RateLimit.withDefaults()
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultFindLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxFindLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	return c
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.MaxQueries <= 0 {
		c.MaxQueries = DefaultRateLimitQueries
	}
	if c.Window <= 0 {
		c.Window = DefaultRateLimitWindow
	}
	if c.MaxActors <= 0 {
		c.MaxActors = DefaultRateLimitActors
	}
	if c.SweepProbability <= 0 {
		c.SweepProbability = DefaultSweepProbability
	}
	return c
}
