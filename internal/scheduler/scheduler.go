// Package scheduler runs per-frame work in a fixed priority order.
//
// Every registered ticker runs once per frame on the caller's goroutine, lower
// priority values first, ties broken by registration order. Pose sessions
// register with a high priority so they see the frame's final rig and grab
// state.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Frame describes the frame being ticked.
type Frame struct {
	Number uint64
	Time   time.Time
	Delta  time.Duration
}

// Ticker is per-frame work.
type Ticker interface {
	Tick(ctx context.Context, f Frame)
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(ctx context.Context, f Frame)

// Tick calls fn(ctx, f).
func (fn TickerFunc) Tick(ctx context.Context, f Frame) {
	fn(ctx, f)
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures ticker registration.
type Option func(*config)

type config struct {
	priority int
	logged   bool
}

// Priority sets the ticker's order within a frame. Defaults to 0.
func Priority(p int) Option {
	return func(c *config) {
		c.priority = p
	}
}

// Logged adds debug logging around every tick.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type entry struct {
	name     string
	priority int
	seq      int
	ticker   Ticker
	attr     attribute.KeyValue
}

// Loop owns the ordered set of tickers.
type Loop struct {
	entries []entry
	seq     int
	logger  Logger

	frame uint64
	last  time.Time
	now   func() time.Time

	// OTEL metrics
	ticks    metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates an empty Loop.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Loop, error) {
	return NewWithMeter(logger, meter())
}

// NewWithMeter creates an empty Loop recording metrics on m. A nil m falls
// back to the global meter.
func NewWithMeter(logger Logger, m metric.Meter) (*Loop, error) {
	if m == nil {
		m = meter()
	}

	l := &Loop{
		logger: logger,
		now:    time.Now,
	}

	var err error

	l.ticks, err = m.Int64Counter(
		"scheduler.ticks",
		metric.WithDescription("Total ticker invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	l.duration, err = m.Float64Histogram(
		"scheduler.tick.duration",
		metric.WithDescription("Ticker run time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	return l, nil
}

// Register adds a named ticker. Names must be unique.
func (l *Loop) Register(name string, t Ticker, opts ...Option) error {
	if t == nil {
		return fmt.Errorf("nil ticker: %s", name)
	}
	if l.Has(name) {
		return fmt.Errorf("ticker already registered: %s", name)
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	ticker := t
	if cfg.logged {
		ticker = l.withLogging(name, cfg.priority, ticker)
	}

	l.entries = append(l.entries, entry{
		name:     name,
		priority: cfg.priority,
		seq:      l.seq,
		ticker:   ticker,
		attr:     attribute.String("ticker", name),
	})
	l.seq++

	slices.SortStableFunc(l.entries, func(a, b entry) int {
		if a.priority != b.priority {
			return a.priority - b.priority
		}
		return a.seq - b.seq
	})

	if l.logger != nil {
		l.logger.Info("ticker registered", "name", name, "priority", cfg.priority)
	}
	return nil
}

// Unregister removes the named ticker.
func (l *Loop) Unregister(name string) bool {
	i := slices.IndexFunc(l.entries, func(e entry) bool { return e.name == name })
	if i < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return true
}

// Has returns true if a ticker with that name is registered.
func (l *Loop) Has(name string) bool {
	return slices.ContainsFunc(l.entries, func(e entry) bool { return e.name == name })
}

// Order returns ticker names in execution order.
func (l *Loop) Order() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.name
	}
	return names
}

// Step runs a single frame and returns it.
func (l *Loop) Step(ctx context.Context) Frame {
	now := l.now()
	l.frame++
	f := Frame{Number: l.frame, Time: now}
	if !l.last.IsZero() {
		f.Delta = now.Sub(l.last)
	}
	l.last = now

	for _, e := range l.entries {
		start := time.Now()
		e.ticker.Tick(ctx, f)
		attrs := metric.WithAttributes(e.attr)
		l.ticks.Add(ctx, 1, attrs)
		l.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
	return f
}

// Run steps the loop every interval until ctx is done or maxFrames frames
// have run. maxFrames 0 means no limit.
func (l *Loop) Run(ctx context.Context, interval time.Duration, maxFrames uint64) error {
	if interval <= 0 {
		return fmt.Errorf("invalid frame interval: %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var ran uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Step(ctx)
			ran++
			if maxFrames > 0 && ran >= maxFrames {
				return nil
			}
		}
	}
}

// Frame returns the number of the last frame stepped.
func (l *Loop) Frame() uint64 {
	return l.frame
}

func (l *Loop) withLogging(name string, priority int, t Ticker) Ticker {
	return TickerFunc(func(ctx context.Context, f Frame) {
		start := time.Now()
		if l.logger != nil {
			l.logger.Debug("ticking", "name", name, "priority", priority, "frame", f.Number)
		}

		t.Tick(ctx, f)

		if l.logger != nil {
			l.logger.Debug("tick complete", "name", name, "frame", f.Number, "duration", time.Since(start))
		}
	})
}
