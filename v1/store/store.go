package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

// Tracer is the subset of *tracer.Tracer the store uses.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
}

// Store executes validated, sanitized and parameterized queries against an
// engine with rate limiting, retries, timeouts and metrics.
//
// A Store is safe for concurrent use. The rate limiter and the metrics are the
// only mutable shared state; everything else is fixed at construction.
type Store struct {
	engine    engine.Engine
	cfg       Config
	retry     RetryPolicy
	limiter   *RateLimiter
	validator *QueryValidator
	race      *timeoutRace
	stats     *queryStats

	logger   Logger
	observer observability.Observer
	tracer   Tracer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Store on top of eng. Zero fields of cfg take their defaults.
// Logging is disabled until WithLogger is called.
func New(eng engine.Engine, cfg Config) *Store {
	cfg = cfg.withDefaults()

	s := &Store{
		engine:  eng,
		cfg:     cfg,
		retry:   NewRetryPolicy(cfg),
		limiter: NewRateLimiter(cfg.RateLimit),
		race:    newTimeoutRace(cfg.MaxInFlight),
		stats:   newQueryStats(cfg.SlowQueryLogSize),
		logger:  nopLogger{},
		now:     time.Now,
		sleep:   sleep,
	}
	s.validator = NewQueryValidator(s.logger)
	return s
}

// WithLogger attaches a logger and returns the store.
func (s *Store) WithLogger(l Logger) *Store {
	if l != nil {
		s.logger = l
		s.validator = NewQueryValidator(l)
	}
	return s
}

// WithObserver attaches an observer notified after every query and transaction.
func (s *Store) WithObserver(o observability.Observer) *Store {
	s.observer = o
	return s
}

// WithTracer enables a span per query and transaction.
func (s *Store) WithTracer(t Tracer) *Store {
	s.tracer = t
	return s
}

// Config returns the effective configuration, defaults applied.
func (s *Store) Config() Config {
	return s.cfg
}

// RateLimiter exposes the limiter shared by all calls on this store.
func (s *Store) RateLimiter() *RateLimiter {
	return s.limiter
}

// CheckRateLimit records a request for actorID or fails RATE_LIMIT_EXCEEDED.
func (s *Store) CheckRateLimit(actorID string) error {
	return s.limiter.Check(actorID)
}

// GetMetrics returns a snapshot of the running query metrics.
func (s *Store) GetMetrics() QueryMetrics {
	return s.stats.snapshot()
}

// ResetMetrics clears the running query metrics and the slow query log.
func (s *Store) ResetMetrics() {
	s.stats.reset()
}

type actorKey struct{}

// WithActor returns a context carrying the actor used for rate limiting when
// QueryOptions.ActorID is empty.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Security(string, ...map[string]interface{})     {}
func (nopLogger) LogDatabase(string, string, time.Duration, bool, ...map[string]interface{}) {
}
