package spectrometer

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-spectro/grating"
	"github.com/cwbudde/algo-spectro/internal/testutil"
	"github.com/cwbudde/algo-spectro/peak"
	"github.com/cwbudde/algo-spectro/profile"
)

// patternConfig picks out the two lines of testutil.ZeroOrderPattern and
// nothing else.
func patternConfig() Config {
	cfg := DefaultConfig()
	cfg.Detection = peak.Config{MinHeight: 100, MinDistance: 1}
	return cfg
}

func peakRows(peaks []Peak) []int {
	rows := make([]int, len(peaks))
	for i, p := range peaks {
		rows[i] = p.Row
	}
	return rows
}

func expectedNM(t *testing.T, g grating.Config, zero, row int) float64 {
	t.Helper()
	dx := math.Abs(float64(row-zero)) * g.PixelPitchMM
	return 1e6 / g.LinesPerMM * math.Sin(math.Atan2(dx, g.DistanceMM)) / math.Abs(float64(g.Order))
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestPipelineZeroOrderPattern(t *testing.T) {
	s := newTestSession(t, patternConfig())

	res, err := s.LoadImage(testutil.ZeroOrderPattern())
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if s.State() != StateZeroOrderIdentified {
		t.Fatalf("state = %v, want %v", s.State(), StateZeroOrderIdentified)
	}

	testutil.RequireIntsEqual(t, peakRows(res.Peaks(profile.Red)), []int{50, 70})
	testutil.RequireIntsEqual(t, peakRows(res.Peaks(profile.Green)), []int{50})
	testutil.RequireIntsEqual(t, peakRows(res.Peaks(profile.Blue)), []int{50})

	if res.ZeroOrder.Row != 50 || res.ZeroOrder.Channel != profile.Red {
		t.Fatalf("zero order = %+v, want row 50 on R", res.ZeroOrder)
	}
	if res.Calibrated() {
		t.Fatal("result calibrated before Calibrate")
	}
	for _, p := range res.AllPeaks() {
		if p.HasWavelength {
			t.Fatalf("peak %+v has a wavelength before calibration", p)
		}
	}

	cal, err := s.Calibrate(CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 2.0})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if s.State() != StateComplete {
		t.Fatalf("state = %v, want %v", s.State(), StateComplete)
	}
	if pitch, ok := s.PixelPitch(); !ok || math.Abs(pitch-0.1) > 1e-12 {
		t.Fatalf("pixel pitch = %v, %v; want 0.1", pitch, ok)
	}

	red := cal.Peaks(profile.Red)
	if !red[0].HasWavelength || red[0].WavelengthNM != 0 {
		t.Fatalf("zero-order row wavelength = %+v, want 0", red[0])
	}
	want := expectedNM(t, cal.Grating, 50, 70)
	if math.Abs(red[1].WavelengthNM-want) > 1e-9 {
		t.Fatalf("row 70 wavelength = %v, want %v", red[1].WavelengthNM, want)
	}
	if math.Abs(want-33.3267) > 1e-3 {
		t.Fatalf("reference wavelength drifted: %v", want)
	}
	if !cal.ZeroOrder.HasWavelength || cal.ZeroOrder.WavelengthNM != 0 {
		t.Fatalf("zero order after calibration = %+v", cal.ZeroOrder)
	}

	// The uncalibrated result handed out earlier is untouched.
	if res.Peaks(profile.Red)[1].HasWavelength {
		t.Fatal("Calibrate modified an earlier result")
	}
}

func TestWavelengthSymmetricAboutZeroOrder(t *testing.T) {
	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	img := testutil.DiffractionImage(4, 100, testutil.Gray(10),
		testutil.Line{Row: 30, Color: red},
		testutil.Line{Row: 50, Color: color.NRGBA{R: 250, G: 250, B: 250, A: 255}},
		testutil.Line{Row: 70, Color: red},
	)

	cfg := patternConfig()
	cfg.Grating.PixelPitchMM = 0.05
	res, err := AnalyzeImage(img, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}

	peaks := res.Peaks(profile.Red)
	testutil.RequireIntsEqual(t, peakRows(peaks), []int{30, 50, 70})
	if peaks[0].WavelengthNM <= 0 || math.Abs(peaks[0].WavelengthNM-peaks[2].WavelengthNM) > 1e-12 {
		t.Fatalf("rows 30 and 70: %v vs %v nm", peaks[0].WavelengthNM, peaks[2].WavelengthNM)
	}
}

func TestWavelengthIncreasesWithDistance(t *testing.T) {
	lines := []testutil.Line{{Row: 10, Color: testutil.Gray(250)}}
	for _, row := range []int{20, 35, 55, 80} {
		lines = append(lines, testutil.Line{Row: row, Color: color.NRGBA{R: 180, A: 255}})
	}
	img := testutil.DiffractionImage(2, 100, testutil.Gray(0), lines...)

	cfg := patternConfig()
	cfg.Grating.PixelPitchMM = 0.2
	res, err := AnalyzeImage(img, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}

	peaks := res.Peaks(profile.Red)
	if len(peaks) != 5 {
		t.Fatalf("got %d red peaks, want 5", len(peaks))
	}
	for i := 1; i < len(peaks); i++ {
		if peaks[i].WavelengthNM <= peaks[i-1].WavelengthNM {
			t.Fatalf("wavelength not increasing at row %d: %v <= %v",
				peaks[i].Row, peaks[i].WavelengthNM, peaks[i-1].WavelengthNM)
		}
	}
}

func TestReconfigureReusesProfile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteJPEG(t, dir, "pattern.jpg",
		testutil.DiffractionImage(16, 100, testutil.Gray(10),
			testutil.Line{Row: 50, Color: testutil.Gray(250)}))

	s := newTestSession(t, patternConfig())
	first, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The file is gone; only the cached profile can serve the rerun.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	cfg := patternConfig()
	cfg.Detection.MinDistance = 5
	second, err := s.Reconfigure(cfg)
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, second.Profile.G, first.Profile.G, 0)
	if second.ZeroOrder.Row != first.ZeroOrder.Row {
		t.Fatalf("zero order moved: %d -> %d", first.ZeroOrder.Row, second.ZeroOrder.Row)
	}

	again, err := s.Reconfigure(cfg)
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	for _, c := range profile.Channels {
		testutil.RequireIntsEqual(t, peakRows(again.Peaks(c)), peakRows(second.Peaks(c)))
	}
}

func TestResultProfileIsolatedFromSession(t *testing.T) {
	s := newTestSession(t, patternConfig())
	res, err := s.LoadImage(testutil.ZeroOrderPattern())
	if err != nil {
		t.Fatal(err)
	}

	res.Profile.R[70] = 0
	if p, ok := s.Profile(); ok {
		p.R[50] = 0
	}

	again, err := s.Reconfigure(patternConfig())
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	testutil.RequireIntsEqual(t, peakRows(again.Peaks(profile.Red)), []int{50, 70})
	if again.Profile.R[70] != 200 || again.Profile.R[50] != 250 {
		t.Fatalf("cached profile modified: R[50]=%v R[70]=%v", again.Profile.R[50], again.Profile.R[70])
	}

	cal, err := s.Calibrate(CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 2})
	if err != nil {
		t.Fatal(err)
	}
	cal.Profile.G[50] = 0
	if again.Profile.G[50] != 250 {
		t.Fatal("calibrated result shares its profile with the uncalibrated one")
	}
}

func TestLoadProfileCopiesInput(t *testing.T) {
	p := profile.RowProfile{
		R: []float64{0, 9, 0, 7, 0},
		G: make([]float64, 5),
		B: make([]float64, 5),
	}
	s := newTestSession(t, ApplyOptions(WithDetection(peak.Config{MinHeight: 1, MinDistance: 1})))
	if _, err := s.LoadProfile(p); err != nil {
		t.Fatal(err)
	}

	p.R[3] = 0
	res, err := s.Reconfigure(s.Config())
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireIntsEqual(t, peakRows(res.Peaks(profile.Red)), []int{1, 3})
}

func TestReconfigureFiltersPeaks(t *testing.T) {
	s := newTestSession(t, patternConfig())
	if _, err := s.LoadImage(testutil.ZeroOrderPattern()); err != nil {
		t.Fatal(err)
	}

	cfg := patternConfig()
	cfg.Detection.MinHeight = 220
	res, err := s.Reconfigure(cfg)
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	testutil.RequireIntsEqual(t, peakRows(res.Peaks(profile.Red)), []int{50})
	if s.Config().Detection.MinHeight != 220 {
		t.Fatalf("config not replaced: %+v", s.Config().Detection)
	}
}

func TestReconfigureRejectsInvalidConfig(t *testing.T) {
	s := newTestSession(t, patternConfig())
	before, err := s.LoadImage(testutil.ZeroOrderPattern())
	if err != nil {
		t.Fatal(err)
	}

	bad := patternConfig()
	bad.Detection.MinDistance = 0
	if _, err := s.Reconfigure(bad); !errors.Is(err, peak.ErrInvalidDistance) {
		t.Fatalf("err = %v, want ErrInvalidDistance", err)
	}
	if s.Result() != before || s.State() != StateZeroOrderIdentified {
		t.Fatalf("invalid config changed the session: state %v", s.State())
	}
}

func TestReconfigureWithoutImage(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	if _, err := s.Reconfigure(DefaultConfig()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not a jpeg at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"garbage", garbage},
		{"missing", filepath.Join(dir, "missing.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, patternConfig())
			if _, err := s.LoadImage(testutil.ZeroOrderPattern()); err != nil {
				t.Fatal(err)
			}

			_, err := s.Load(tt.path)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
			if s.State() != StateIdle {
				t.Fatalf("state = %v, want idle", s.State())
			}
			if s.Result() != nil {
				t.Fatal("stale result survived a failed load")
			}
			if _, ok := s.Profile(); ok {
				t.Fatal("stale profile survived a failed load")
			}
		})
	}
}

func TestLoadImageNil(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	if _, err := s.LoadImage(nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v, want idle", s.State())
	}
}

func TestNoPeaks(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	_, err := s.LoadImage(testutil.DiffractionImage(3, 40, testutil.Gray(120)))
	if !errors.Is(err, ErrNoPeaks) {
		t.Fatalf("err = %v, want ErrNoPeaks", err)
	}
	if s.State() != StatePeaksDetected {
		t.Fatalf("state = %v, want %v", s.State(), StatePeaksDetected)
	}
	if s.Result() != nil {
		t.Fatal("result present without a zero order")
	}
	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 10, KnownDistanceMM: 1}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Calibrate err = %v, want ErrNotReady", err)
	}
}

func TestCalibrateErrors(t *testing.T) {
	tests := []struct {
		name string
		pt   CalibrationPoint
	}{
		{"reference equals zero order", CalibrationPoint{ReferenceRow: 50, KnownDistanceMM: 2}},
		{"zero distance", CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 0}},
		{"negative distance", CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: -1}},
		{"NaN distance", CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: math.NaN()}},
		{"row below image", CalibrationPoint{ReferenceRow: -1, KnownDistanceMM: 2}},
		{"row past image", CalibrationPoint{ReferenceRow: 100, KnownDistanceMM: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, patternConfig())
			if _, err := s.LoadImage(testutil.ZeroOrderPattern()); err != nil {
				t.Fatal(err)
			}
			good, err := s.Calibrate(CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 2})
			if err != nil {
				t.Fatal(err)
			}

			if _, err := s.Calibrate(tt.pt); !errors.Is(err, ErrInvalidCalibration) {
				t.Fatalf("err = %v, want ErrInvalidCalibration", err)
			}
			if pitch, _ := s.PixelPitch(); math.Abs(pitch-0.1) > 1e-12 {
				t.Fatalf("pitch changed to %v after failed calibration", pitch)
			}
			if s.Result() != good || s.State() != StateComplete {
				t.Fatalf("failed calibration changed the session: state %v", s.State())
			}
		})
	}
}

func TestCalibrateBeforeLoad(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 1, KnownDistanceMM: 1}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestSetPixelPitchBeforeLoad(t *testing.T) {
	s := newTestSession(t, patternConfig())
	res, err := s.SetPixelPitch(0.1)
	if !errors.Is(err, ErrNotReady) || res != nil {
		t.Fatalf("SetPixelPitch = %v, %v; want nil, ErrNotReady", res, err)
	}
	if pitch, ok := s.PixelPitch(); !ok || pitch != 0.1 {
		t.Fatalf("pitch = %v, %v; want cached 0.1", pitch, ok)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v, want idle", s.State())
	}

	res, err = s.LoadImage(testutil.ZeroOrderPattern())
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateComplete || !res.Calibrated() {
		t.Fatalf("state %v calibrated %v; want complete", s.State(), res.Calibrated())
	}
	if got := res.Peaks(profile.Red)[1].WavelengthNM; math.Abs(got-33.3267) > 1e-3 {
		t.Fatalf("row 70 wavelength = %v", got)
	}
}

func TestSetPixelPitchInvalid(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	for _, v := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := s.SetPixelPitch(v); !errors.Is(err, ErrInvalidCalibration) {
			t.Fatalf("SetPixelPitch(%v) err = %v, want ErrInvalidCalibration", v, err)
		}
	}
	if _, ok := s.PixelPitch(); ok {
		t.Fatal("invalid pitch was cached")
	}
}

func TestPixelPitchPersistsAcrossLoads(t *testing.T) {
	s := newTestSession(t, patternConfig())
	if _, err := s.LoadImage(testutil.ZeroOrderPattern()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 2}); err != nil {
		t.Fatal(err)
	}

	shifted := testutil.DiffractionImage(1, 100, testutil.Gray(10),
		testutil.Line{Row: 40, Color: testutil.Gray(250)},
		testutil.Line{Row: 60, Color: color.NRGBA{R: 200, G: 10, B: 10, A: 255}},
	)
	res, err := s.LoadImage(shifted)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateComplete {
		t.Fatalf("state = %v, want complete", s.State())
	}
	if res.ZeroOrder.Row != 40 || math.Abs(res.PixelPitchMM()-0.1) > 1e-12 {
		t.Fatalf("zero order %d pitch %v", res.ZeroOrder.Row, res.PixelPitchMM())
	}
	if got := res.Peaks(profile.Red)[1].WavelengthNM; math.Abs(got-33.3267) > 1e-3 {
		t.Fatalf("row 60 wavelength = %v", got)
	}
}

func TestConfigPitchSeedsSession(t *testing.T) {
	cfg := patternConfig()
	cfg.Grating.PixelPitchMM = 0.1

	res, err := AnalyzeImage(testutil.ZeroOrderPattern(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Calibrated() {
		t.Fatal("pitch from config not applied")
	}
	if res.ZeroOrder.WavelengthNM != 0 || !res.ZeroOrder.HasWavelength {
		t.Fatalf("zero order = %+v", res.ZeroOrder)
	}
}

func TestSmoothingKeepsRawProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 2

	res, err := AnalyzeImage(testutil.ZeroOrderPattern(), cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if res.Smoothed == nil {
		t.Fatal("Smoothed is nil with smoothing enabled")
	}
	if res.Profile.G[50] != 250 {
		t.Fatalf("raw profile altered: G[50] = %v", res.Profile.G[50])
	}
	if res.ZeroOrder.Row != 50 {
		t.Fatalf("zero order row = %d, want 50", res.ZeroOrder.Row)
	}
	if res.ZeroOrder.Intensity >= 250 {
		t.Fatalf("zero-order intensity %v not taken from smoothed profile", res.ZeroOrder.Intensity)
	}
}

func TestAnalyzeJPEG(t *testing.T) {
	path := testutil.WriteJPEG(t, t.TempDir(), "pattern.jpg",
		testutil.DiffractionImage(16, 100, testutil.Gray(10),
			testutil.Line{Row: 50, Color: testutil.Gray(250)}))

	cfg := DefaultConfig()
	cfg.Detection = peak.Config{MinHeight: 100, MinDistance: 5}
	res, err := Analyze(path, cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.ZeroOrder.Row != 50 {
		t.Fatalf("zero order row = %d, want 50", res.ZeroOrder.Row)
	}
	if res.Profile.Height() != 100 {
		t.Fatalf("height = %d, want 100", res.Profile.Height())
	}
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grating.Order = 0
	if _, err := NewSession(cfg); !errors.Is(err, grating.ErrInvalidOrder) {
		t.Fatalf("err = %v, want ErrInvalidOrder", err)
	}
	if _, err := AnalyzeImage(testutil.ZeroOrderPattern(), cfg); err == nil {
		t.Fatal("AnalyzeImage accepted an invalid config")
	}
}

func TestSessionLogsStages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewSession(patternConfig(), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadImage(testutil.ZeroOrderPattern()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 70, KnownDistanceMM: 2}); err != nil {
		t.Fatal(err)
	}

	var states []string
	for _, e := range logs.FilterMessage("stage complete").All() {
		states = append(states, e.ContextMap()["state"].(string))
	}
	want := []string{
		"image-loaded", "profile-computed", "peaks-detected",
		"zero-order-identified", "calibrated", "complete",
	}
	if len(states) != len(want) {
		t.Fatalf("logged states %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("logged states %v, want %v", states, want)
		}
	}

	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 50, KnownDistanceMM: 2}); err == nil {
		t.Fatal("expected calibration error")
	}
	if _, err := s.Calibrate(CalibrationPoint{ReferenceRow: 500, KnownDistanceMM: 2}); err == nil {
		t.Fatal("expected calibration error")
	}
	rejected := logs.FilterMessage("calibration rejected").All()
	if len(rejected) != 2 {
		t.Fatalf("logged %d rejected calibrations, want 2", len(rejected))
	}
	if row := rejected[1].ContextMap()["reference_row"]; row != int64(500) {
		t.Fatalf("reference_row = %v, want 500", row)
	}
}

func TestStateString(t *testing.T) {
	if StateZeroOrderIdentified.String() != "zero-order-identified" {
		t.Fatalf("got %q", StateZeroOrderIdentified.String())
	}
	if State(42).String() != "State(42)" {
		t.Fatalf("got %q", State(42).String())
	}
}
