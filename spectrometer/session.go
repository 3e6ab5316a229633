package spectrometer

import (
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-spectro/grating"
	"github.com/cwbudde/algo-spectro/profile"
)

// State is the pipeline stage a session has completed.
type State int

const (
	StateIdle State = iota
	StateImageLoaded
	StateProfileComputed
	StatePeaksDetected
	StateZeroOrderIdentified
	StateCalibrated
	StateComplete
)

// String returns the stage name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateImageLoaded:
		return "image-loaded"
	case StateProfileComputed:
		return "profile-computed"
	case StatePeaksDetected:
		return "peaks-detected"
	case StateZeroOrderIdentified:
		return "zero-order-identified"
	case StateCalibrated:
		return "calibrated"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session drives the pipeline for one interactive user. It caches the row
// profile of the last loaded image and the pixel pitch, so that detection
// changes and calibrations reuse them. Every method runs synchronously; a
// Session is not safe for concurrent use.
type Session struct {
	cfg    Config
	logger *zap.Logger

	state   State
	profile *profile.RowProfile
	zero    *Peak
	result  *Result

	// pitch is the session's pixel pitch in mm, 0 until established.
	pitch float64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger for stage transitions. The default discards.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession returns an idle session. A pixel pitch in cfg.Grating seeds the
// session's pitch; afterwards the pitch changes only through
// [Session.Calibrate] and [Session.SetPixelPitch].
func NewSession(cfg Config, opts ...SessionOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		logger: zap.NewNop(),
		pitch:  cfg.Grating.PixelPitchMM,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// State returns the last completed stage.
func (s *Session) State() State { return s.state }

// Config returns the configuration of the current run.
func (s *Session) Config() Config { return s.cfg }

// Result returns the current result, or nil before a zero-order peak has
// been identified for the loaded image.
func (s *Session) Result() *Result { return s.result }

// Profile returns a copy of the cached row profile.
func (s *Session) Profile() (profile.RowProfile, bool) {
	if s.profile == nil {
		return profile.RowProfile{}, false
	}
	return s.profile.Clone(), true
}

// PixelPitch returns the cached pixel pitch in mm.
func (s *Session) PixelPitch() (float64, bool) {
	return s.pitch, s.pitch > 0
}

// Load decodes the JPEG at path and runs the pipeline up to the zero-order
// peak, or to completion when a pixel pitch is already known.
func (s *Session) Load(path string) (*Result, error) {
	s.reset()

	img, err := profile.ReadImage(path)
	if err != nil {
		return nil, s.fail(err)
	}
	s.advance(StateImageLoaded, zap.String("path", path))

	return s.profileImage(img)
}

// LoadImage is Load for an already decoded image.
func (s *Session) LoadImage(img image.Image) (*Result, error) {
	s.reset()
	if img == nil {
		return nil, s.fail(fmt.Errorf("%w: %w", ErrDecode, profile.ErrEmptyImage))
	}
	s.advance(StateImageLoaded)

	return s.profileImage(img)
}

// LoadProfile starts the pipeline from a precomputed row profile. The
// session keeps its own copy of p.
func (s *Session) LoadProfile(p profile.RowProfile) (*Result, error) {
	s.reset()
	if err := p.Validate(); err != nil {
		return nil, s.fail(err)
	}
	if p.Height() == 0 {
		return nil, s.fail(fmt.Errorf("%w: %w", ErrDecode, profile.ErrEmptyImage))
	}

	cached := p.Clone()
	s.profile = &cached
	s.advance(StateProfileComputed, zap.Int("rows", p.Height()))

	return s.sweep()
}

// Reconfigure replaces the configuration and reruns the pipeline from peak
// detection on the cached profile. The image is not decoded again. An
// invalid cfg is rejected without touching the session.
func (s *Session) Reconfigure(cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.profile == nil {
		return nil, ErrNoImage
	}

	s.cfg = cfg
	s.zero, s.result = nil, nil
	s.state = StateProfileComputed

	return s.sweep()
}

// Calibrate derives the pixel pitch from a row at a known distance from the
// zero-order peak and assigns a wavelength to every peak. On failure the
// previous pitch and result are kept.
func (s *Session) Calibrate(pt CalibrationPoint) (*Result, error) {
	if s.zero == nil || s.result == nil {
		return nil, ErrNotReady
	}
	if pt.ReferenceRow < 0 || pt.ReferenceRow >= s.profile.Height() {
		return nil, s.rejectCalibration(pt, fmt.Errorf("%w: reference row %d outside [0, %d]",
			ErrInvalidCalibration, pt.ReferenceRow, s.profile.Height()-1))
	}

	pitch, err := grating.PixelPitch(s.zero.Row, pt.ReferenceRow, pt.KnownDistanceMM)
	if err != nil {
		return nil, s.rejectCalibration(pt, err)
	}

	return s.applyPitch(pitch)
}

func (s *Session) rejectCalibration(pt CalibrationPoint, err error) error {
	s.logger.Warn("calibration rejected",
		zap.Int("zero_order_row", s.zero.Row),
		zap.Int("reference_row", pt.ReferenceRow),
		zap.Float64("known_distance_mm", pt.KnownDistanceMM),
		zap.Error(err))
	return err
}

// SetPixelPitch sets the pixel pitch directly, for sensors whose pitch is
// known. When a zero-order peak exists the wavelengths are recomputed.
// Otherwise the pitch is cached for the next load and [ErrNotReady] reports
// that no result was built.
func (s *Session) SetPixelPitch(mm float64) (*Result, error) {
	if math.IsNaN(mm) || math.IsInf(mm, 0) || mm <= 0 {
		return nil, fmt.Errorf("%w: pixel pitch %v mm must be positive", ErrInvalidCalibration, mm)
	}
	if s.zero == nil || s.result == nil {
		s.pitch = mm
		s.logger.Debug("pixel pitch cached", zap.Float64("pixel_pitch_mm", mm))
		return nil, fmt.Errorf("%w: pixel pitch %v mm cached", ErrNotReady, mm)
	}

	return s.applyPitch(mm)
}

func (s *Session) applyPitch(pitch float64) (*Result, error) {
	g := s.cfg.Grating
	g.PixelPitchMM = pitch
	res, err := calibratedResult(s.result, g)
	if err != nil {
		return nil, err
	}

	s.pitch = pitch
	s.advance(StateCalibrated, zap.Float64("pixel_pitch_mm", pitch))
	s.result = res
	s.advance(StateComplete)

	return res, nil
}

func (s *Session) profileImage(img image.Image) (*Result, error) {
	p, err := profile.FromImage(img)
	if err != nil {
		return nil, s.fail(err)
	}

	s.profile = &p
	s.advance(StateProfileComputed, zap.Int("rows", p.Height()))

	return s.sweep()
}

// sweep runs peak detection, zero-order identification and, with a known
// pitch, wavelength assignment on the cached profile.
func (s *Session) sweep() (*Result, error) {
	det, err := detectPeaks(*s.profile, s.cfg)
	if err != nil {
		return nil, s.fail(err)
	}
	s.advance(StatePeaksDetected,
		zap.Int("peaks_r", len(det.channels[profile.Red])),
		zap.Int("peaks_g", len(det.channels[profile.Green])),
		zap.Int("peaks_b", len(det.channels[profile.Blue])))

	zero, err := locateZeroOrder(s.cfg.ZeroOrder, det.all(), det.input)
	if err != nil {
		return nil, s.fail(err)
	}
	s.zero = &zero
	s.result = newResult(*s.profile, det, zero, s.cfg.Grating)
	s.advance(StateZeroOrderIdentified,
		zap.Int("zero_order_row", zero.Row),
		zap.Stringer("channel", zero.Channel))

	if s.pitch > 0 {
		return s.applyPitch(s.pitch)
	}
	return s.result, nil
}

func (s *Session) reset() {
	s.state = StateIdle
	s.profile, s.zero, s.result = nil, nil, nil
}

func (s *Session) advance(state State, fields ...zap.Field) {
	s.state = state
	s.logger.Debug("stage complete", append([]zap.Field{zap.Stringer("state", state)}, fields...)...)
}

func (s *Session) fail(err error) error {
	s.logger.Warn("stage failed", zap.Stringer("state", s.state), zap.Error(err))
	return err
}
