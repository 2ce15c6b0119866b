// Package metrics wraps a statsd client the way the teacher's Manager and
// Scope wrap theirs (m.statsInc/m.statsTiming call sites bracketing every
// phase). The dispatcher is the one caller: it Incs a counter per event
// kind (dispatcher.message.<kind>, dispatcher.tick,
// dispatcher.client.command) and Times how long each took to process
// (<same name>.duration), the way the teacher brackets a phase with both a
// counter and a timing around it.
package metrics

import (
	"time"

	statsd "github.com/cactus/go-statsd-client/v5/statsd"
)

// Sink is the narrow surface the core needs from a metrics backend.
type Sink interface {
	Inc(name string, n int64)
	Timing(name string, d time.Duration)
}

// Statsd adapts a statsd.Statter to Sink.
type Statsd struct {
	client statsd.Statter
}

func NewStatsd(client statsd.Statter) *Statsd {
	return &Statsd{client: client}
}

func (s *Statsd) Inc(name string, n int64) {
	_ = s.client.Inc(name, n, 1.0)
}

func (s *Statsd) Timing(name string, d time.Duration) {
	_ = s.client.TimingDuration(name, d, 1.0)
}

// Noop discards everything; it's the default for tests and the demo, the
// way a host that doesn't care about metrics would wire the core up.
type Noop struct{}

func (Noop) Inc(string, int64)            {}
func (Noop) Timing(string, time.Duration) {}
