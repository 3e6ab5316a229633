package spectrometer

import (
	"github.com/cwbudde/algo-spectro/grating"
	"github.com/cwbudde/algo-spectro/peak"
	"github.com/cwbudde/algo-spectro/profile"
)

// Result is the outcome of one pipeline run, handed to the presentation
// layer. It is never modified after construction; a new run builds a new
// Result.
type Result struct {
	// Profile is the unsmoothed row profile of the image.
	Profile profile.RowProfile
	// Smoothed is the profile peaks were detected on, nil when smoothing
	// is disabled.
	Smoothed *profile.RowProfile

	ZeroOrder Peak

	// Grating is the geometry used for wavelengths. Its PixelPitchMM is
	// non-zero only for calibrated results.
	Grating grating.Config

	channels [len(profile.Channels)][]Peak
}

// Peaks returns the peaks of channel c in ascending row order.
func (r *Result) Peaks(c profile.Channel) []Peak {
	if c < 0 || int(c) >= len(r.channels) {
		return nil
	}
	return append([]Peak(nil), r.channels[c]...)
}

// AllPeaks returns the red, then green, then blue peaks.
func (r *Result) AllPeaks() []Peak {
	var out []Peak
	for _, ch := range r.channels {
		out = append(out, ch...)
	}
	return out
}

// Rows returns the row indices of the profile, the x axis of a plot.
func (r *Result) Rows() []int {
	return r.Profile.Rows()
}

// Calibrated reports whether peaks carry wavelengths.
func (r *Result) Calibrated() bool {
	return r.Grating.Calibrated()
}

// PixelPitchMM returns the pitch used for wavelengths, 0 when uncalibrated.
func (r *Result) PixelPitchMM() float64 {
	return r.Grating.PixelPitchMM
}

// detection holds the output of the peak stage for one profile.
type detection struct {
	input    profile.RowProfile
	smoothed *profile.RowProfile
	channels [len(profile.Channels)][]Peak
}

func (d *detection) all() []Peak {
	var out []Peak
	for _, ch := range d.channels {
		out = append(out, ch...)
	}
	return out
}

// detectPeaks smooths p when configured and runs the peak finder on each
// channel independently.
func detectPeaks(p profile.RowProfile, cfg Config) (*detection, error) {
	if err := cfg.Detection.Validate(); err != nil {
		return nil, err
	}

	d := &detection{input: p}
	if cfg.Smoothing > 0 {
		s, err := p.Smooth(cfg.Smoothing)
		if err != nil {
			return nil, err
		}
		d.input = s
		d.smoothed = &s
	}

	for _, c := range profile.Channels {
		x := d.input.Channel(c)
		idx, err := peak.Find(x, cfg.Detection)
		if err != nil {
			return nil, err
		}

		peaks := make([]Peak, len(idx))
		for k, row := range idx {
			peaks[k] = Peak{Row: row, Channel: c, Intensity: x[row]}
		}
		d.channels[c] = peaks
	}

	return d, nil
}

// newResult assembles an uncalibrated result. The result owns its copy of
// p, so callers cannot reach the session's cached profile through it.
func newResult(p profile.RowProfile, d *detection, zero Peak, g grating.Config) *Result {
	g.PixelPitchMM = 0
	r := &Result{
		Profile:   p.Clone(),
		Smoothed:  d.smoothed,
		ZeroOrder: zero,
		Grating:   g,
	}
	for c, ch := range d.channels {
		r.channels[c] = append([]Peak(nil), ch...)
	}
	return r
}

// calibratedResult returns a copy of base with a wavelength on every peak.
func calibratedResult(base *Result, g grating.Config) (*Result, error) {
	if !g.Calibrated() {
		return nil, ErrUncalibrated
	}

	r := *base
	r.Grating = g
	r.Profile = base.Profile.Clone()
	if base.Smoothed != nil {
		sm := base.Smoothed.Clone()
		r.Smoothed = &sm
	}

	zero := base.ZeroOrder.Row
	assign := func(pk Peak) (Peak, error) {
		nm, err := g.Wavelength(zero, pk.Row)
		if err != nil {
			return Peak{}, err
		}
		pk.WavelengthNM = nm
		pk.HasWavelength = true
		return pk, nil
	}

	for c, ch := range base.channels {
		out := make([]Peak, len(ch))
		for k, pk := range ch {
			withNM, err := assign(pk)
			if err != nil {
				return nil, err
			}
			out[k] = withNM
		}
		r.channels[c] = out
	}

	var err error
	if r.ZeroOrder, err = assign(base.ZeroOrder); err != nil {
		return nil, err
	}

	return &r, nil
}
