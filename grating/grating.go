package grating

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by grating functions.
var (
	ErrInvalidCalibration = errors.New("grating: invalid calibration")
	ErrUncalibrated       = errors.New("grating: pixel pitch not calibrated")
	ErrInvalidGeometry    = errors.New("grating: line density and distance must be positive")
	ErrInvalidOrder       = errors.New("grating: diffraction order must be non-zero")
)

const nmPerMM = 1e6

// PixelPitch returns the physical length in millimetres represented by one
// pixel row, given the zero-order row, a reference row and the measured
// distance between them on the sensor.
func PixelPitch(zero, ref int, distanceMM float64) (float64, error) {
	if ref == zero {
		return 0, fmt.Errorf("%w: reference row %d equals zero-order row", ErrInvalidCalibration, ref)
	}
	if math.IsNaN(distanceMM) || math.IsInf(distanceMM, 0) || distanceMM <= 0 {
		return 0, fmt.Errorf("%w: distance %v mm must be positive", ErrInvalidCalibration, distanceMM)
	}

	return distanceMM / math.Abs(float64(ref-zero)), nil
}

// Config describes the spectrometer geometry.
type Config struct {
	LinesPerMM   float64 // grating line density
	DistanceMM   float64 // grating-to-sensor distance
	PixelPitchMM float64 // sensor length per pixel row; 0 until calibrated
	Order        int     // diffraction order m
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 600 lines/mm grating 100 mm from the sensor,
// first order, with no pixel pitch.
func DefaultConfig() Config {
	return Config{
		LinesPerMM: 600,
		DistanceMM: 100,
		Order:      1,
	}
}

// WithLinesPerMM sets the grating line density.
func WithLinesPerMM(v float64) Option {
	return func(cfg *Config) {
		cfg.LinesPerMM = v
	}
}

// WithDistanceMM sets the grating-to-sensor distance.
func WithDistanceMM(v float64) Option {
	return func(cfg *Config) {
		cfg.DistanceMM = v
	}
}

// WithPixelPitchMM sets the pixel pitch.
func WithPixelPitchMM(v float64) Option {
	return func(cfg *Config) {
		cfg.PixelPitchMM = v
	}
}

// WithOrder sets the diffraction order.
func WithOrder(m int) Option {
	return func(cfg *Config) {
		cfg.Order = m
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

// Validate checks the grating geometry. A missing pixel pitch is not an
// error here; see [Config.Calibrated].
func (c Config) Validate() error {
	if !positive(c.LinesPerMM) || !positive(c.DistanceMM) {
		return fmt.Errorf("%w: %v lines/mm, %v mm", ErrInvalidGeometry, c.LinesPerMM, c.DistanceMM)
	}
	if c.Order == 0 {
		return ErrInvalidOrder
	}
	if math.IsNaN(c.PixelPitchMM) || math.IsInf(c.PixelPitchMM, 0) || c.PixelPitchMM < 0 {
		return fmt.Errorf("%w: pixel pitch %v mm", ErrInvalidCalibration, c.PixelPitchMM)
	}
	return nil
}

// Calibrated reports whether a pixel pitch has been established.
func (c Config) Calibrated() bool {
	return positive(c.PixelPitchMM)
}

// SpacingNM returns the grating period in nanometres.
func (c Config) SpacingNM() float64 {
	return nmPerMM / c.LinesPerMM
}

// Angle returns the diffraction angle in radians of the row peak relative
// to the zero-order row. It is non-negative on either side of the zero order.
func (c Config) Angle(zero, peak int) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if !c.Calibrated() {
		return 0, ErrUncalibrated
	}

	dx := math.Abs(float64(peak-zero)) * c.PixelPitchMM
	return math.Atan2(dx, c.DistanceMM), nil
}

// Wavelength returns the wavelength in nanometres of light diffracted into
// c.Order that lands on row peak. The zero-order row itself is not a
// diffracted line and yields 0 whatever the configuration.
func (c Config) Wavelength(zero, peak int) (float64, error) {
	if peak == zero {
		return 0, nil
	}

	theta, err := c.Angle(zero, peak)
	if err != nil {
		return 0, err
	}

	m := math.Abs(float64(c.Order))
	return c.SpacingNM() * math.Sin(theta) / m, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
