package channel

import "log/slog"

// Level is a sink that remembers the last level it received.
type Level struct {
	Name  string
	value float64
	calls int
}

// NewLevel creates a named level sink.
func NewLevel(name string) *Level {
	return &Level{Name: name}
}

// SetLevel implements Sink.
func (l *Level) SetLevel(v float64) {
	l.value = v
	l.calls++
}

// Value returns the last level set.
func (l *Level) Value() float64 {
	return l.value
}

// Calls returns how many times SetLevel has been called.
func (l *Level) Calls() int {
	return l.calls
}

// Logged wraps a sink and logs every level change at debug level.
type Logged struct {
	name   string
	inner  Sink
	logger *slog.Logger
	last   float64
	seen   bool
}

// NewLogged creates a logging sink around inner. inner may be nil.
func NewLogged(name string, inner Sink, logger *slog.Logger) *Logged {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logged{name: name, inner: inner, logger: logger}
}

// SetLevel implements Sink. Repeated identical levels are not logged.
func (l *Logged) SetLevel(v float64) {
	if !l.seen || v != l.last {
		l.logger.Debug("Auxiliary channel level", "channel", l.name, "level", v)
	}
	l.last, l.seen = v, true
	if l.inner != nil {
		l.inner.SetLevel(v)
	}
}
