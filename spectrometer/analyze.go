package spectrometer

import (
	"image"

	"github.com/cwbudde/algo-spectro/profile"
)

// Analyze runs the full pipeline on the JPEG at path with cfg. Wavelengths
// are filled in when cfg.Grating carries a pixel pitch.
func Analyze(path string, cfg Config) (*Result, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s.Load(path)
}

// AnalyzeImage is Analyze for an already decoded image.
func AnalyzeImage(img image.Image, cfg Config) (*Result, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s.LoadImage(img)
}

// AnalyzeProfile is Analyze for a precomputed row profile.
func AnalyzeProfile(p profile.RowProfile, cfg Config) (*Result, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s.LoadProfile(p)
}
