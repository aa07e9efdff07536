package sim

import (
	"io"

	"github.com/gmofishsauce/hithlain/internal/simtime"
)

// Config controls one simulation run: whether to emit a VCD trace, how
// far past the last executed event the trace's final timestamp lies, and
// an optional simulated-time cutoff. Constructed with
// NewConfig and functional options, the same pattern the teacher uses
// for its assembler's output configuration (yasm/options.go).
type Config struct {
	CreateVCD bool
	VCDWriter io.Writer
	Stamp     string
	Overshoot simtime.Duration
	MaxNanos  *uint64
}

// Option configures a Config.
type Option func(*Config)

// defaultOvershoot is how long the VCD trace runs past the last
// scheduled event, matching the 10ns tail the original simulator always
// appends so waveform viewers show a final settled edge.
var defaultOvershoot = simtime.FromNanos(10)

// NewConfig builds a Config with spec.md's defaults, then applies opts.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Overshoot: defaultOvershoot,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithVCD enables VCD generation, writing to w.
func WithVCD(w io.Writer) Option {
	return func(c *Config) {
		c.CreateVCD = true
		c.VCDWriter = w
	}
}

// WithStamp sets the $date field written to the VCD header. Tests should
// always set this explicitly for deterministic output.
func WithStamp(stamp string) Option {
	return func(c *Config) { c.Stamp = stamp }
}

// WithOvershoot overrides the default post-run VCD tail duration.
func WithOvershoot(d simtime.Duration) Option {
	return func(c *Config) { c.Overshoot = d }
}

// WithMaxNanos stops the run as soon as the event queue's next event
// would cross n nanoseconds, discarding it and everything scheduled
// after it rather than running forever on a misbehaving circuit.
func WithMaxNanos(n uint64) Option {
	return func(c *Config) { c.MaxNanos = &n }
}
