// Package channel drives auxiliary animation channels that move in sync with
// a hand pose blend, such as a trigger or lever on the held object.
package channel

// Sink receives a level for one auxiliary channel.
type Sink interface {
	SetLevel(v float64)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(v float64)

// SetLevel calls f(v).
func (f SinkFunc) SetLevel(v float64) {
	f(v)
}

// Driver fans a level out to every registered sink. Levels are passed through
// unchanged.
type Driver struct {
	sinks []Sink
}

// NewDriver creates a driver for the given sinks. Nil sinks are dropped.
func NewDriver(sinks ...Sink) *Driver {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			valid = append(valid, s)
		}
	}
	return &Driver{sinks: valid}
}

// Len returns the number of sinks.
func (d *Driver) Len() int {
	return len(d.sinks)
}

// SetLevel forwards v to every sink in registration order.
func (d *Driver) SetLevel(v float64) {
	for _, s := range d.sinks {
		s.SetLevel(v)
	}
}

// Reset sets every sink to 0.
func (d *Driver) Reset() {
	d.SetLevel(0)
}
