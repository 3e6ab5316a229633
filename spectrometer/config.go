package spectrometer

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-spectro/grating"
	"github.com/cwbudde/algo-spectro/peak"
	"github.com/cwbudde/algo-spectro/profile"
)

// Errors returned by the pipeline. The first four are the error kinds a
// front end is expected to show to the user.
var (
	ErrDecode             = profile.ErrDecode
	ErrNoPeaks            = errors.New("spectrometer: no peaks found in any channel")
	ErrInvalidCalibration = grating.ErrInvalidCalibration
	ErrUncalibrated       = grating.ErrUncalibrated

	ErrNoImage       = errors.New("spectrometer: no image loaded")
	ErrNotReady      = errors.New("spectrometer: zero-order peak not identified")
	ErrUnknownPolicy = errors.New("spectrometer: unknown zero-order policy")
	ErrInvalidSmooth = errors.New("spectrometer: smoothing width must be non-negative")
)

// Config is the complete, immutable parameter set of one pipeline run.
type Config struct {
	Detection peak.Config
	// Smoothing is the half width in rows of the low-pass applied before
	// peak detection. 0 disables smoothing.
	Smoothing int
	Grating   grating.Config
	ZeroOrder ZeroOrderPolicy
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default detection thresholds, no smoothing, the
// default grating and the highest-peak zero-order policy.
func DefaultConfig() Config {
	return Config{
		Detection: peak.DefaultConfig(),
		Grating:   grating.DefaultConfig(),
		ZeroOrder: PolicyMaxPeak,
	}
}

// WithDetection sets the peak detection thresholds.
func WithDetection(d peak.Config) Option {
	return func(cfg *Config) {
		cfg.Detection = d
	}
}

// WithSmoothing sets the smoothing half width.
func WithSmoothing(width int) Option {
	return func(cfg *Config) {
		cfg.Smoothing = width
	}
}

// WithGrating sets the spectrometer geometry.
func WithGrating(g grating.Config) Option {
	return func(cfg *Config) {
		cfg.Grating = g
	}
}

// WithZeroOrderPolicy sets how the zero-order peak is chosen.
func WithZeroOrderPolicy(p ZeroOrderPolicy) Option {
	return func(cfg *Config) {
		cfg.ZeroOrder = p
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks every parameter group.
func (c Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if c.Smoothing < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSmooth, c.Smoothing)
	}
	if err := c.Grating.Validate(); err != nil {
		return err
	}
	if !c.ZeroOrder.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownPolicy, int(c.ZeroOrder))
	}
	return nil
}

// CalibrationPoint is a row at a known sensor distance from the zero order.
type CalibrationPoint struct {
	ReferenceRow    int
	KnownDistanceMM float64
}
