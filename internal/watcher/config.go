// Package watcher runs bidding auto-close controllers for every open
// LICITACION request of a client account.
package watcher

import (
	"time"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/bidding"
)

// Config holds watcher configuration options.
type Config struct {
	// Interval between polling cycles. Default: 60 seconds.
	Interval time.Duration

	// CycleTimeout is the maximum duration for a single cycle.
	// Default: 30 seconds.
	CycleTimeout time.Duration

	// MaxConcurrency limits auto-close calls running at once within a cycle.
	// Default: 5.
	MaxConcurrency int

	// RunOnStart controls whether to run a cycle immediately on startup.
	// Default: true.
	RunOnStart bool

	Clock   bidding.Clock
	Latch   bidding.Latch
	Metrics *Metrics
	Logger  *zap.SugaredLogger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval:       bidding.DefaultInterval,
		CycleTimeout:   30 * time.Second,
		MaxConcurrency: 5,
		RunOnStart:     true,
		Clock:          bidding.SystemClock{},
		Latch:          bidding.NewMemoryLatch(),
		Logger:         zap.NewNop().Sugar(),
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithInterval sets the cycle interval.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithCycleTimeout sets the cycle timeout.
func WithCycleTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CycleTimeout = d
	}
}

// WithMaxConcurrency sets the max concurrent auto-close calls.
func WithMaxConcurrency(n int) Option {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// WithRunOnStart controls whether to run immediately on start.
func WithRunOnStart(b bool) Option {
	return func(c *Config) {
		c.RunOnStart = b
	}
}

// WithClock sets the time source handed to every controller.
func WithClock(clock bidding.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLatch sets the auto-close latch shared by all controllers.
func WithLatch(l bidding.Latch) Option {
	return func(c *Config) {
		c.Latch = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
