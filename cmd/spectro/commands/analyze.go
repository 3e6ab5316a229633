package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-spectro/export"
	"github.com/cwbudde/algo-spectro/grating"
	"github.com/cwbudde/algo-spectro/peak"
	"github.com/cwbudde/algo-spectro/plot"
	"github.com/cwbudde/algo-spectro/spectrometer"
)

var errUnsupportedFormat = errors.New("spectro: only .jpg and .jpeg images are supported")

type analyzeOptions struct {
	minHeight   float64
	minDistance int
	smooth      int
	policy      string

	linesPerMM   float64
	distanceMM   float64
	order        int
	pixelPitchMM float64

	refRow        int
	refDistanceMM float64

	svgPath    string
	csvDir     string
	parquetDir string
}

func analyzeCmd() *cobra.Command {
	det := peak.DefaultConfig()
	geo := grating.DefaultConfig()
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze IMAGE.jpg",
		Short: "Detect peaks and, when calibrated, their wavelengths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), args[0], o)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&o.minHeight, "min-height", det.MinHeight, "minimum peak intensity (0-255)")
	f.IntVar(&o.minDistance, "min-distance", det.MinDistance, "minimum row distance between peaks of one channel")
	f.IntVar(&o.smooth, "smooth", 0, "low-pass half width in rows before detection (0 disables)")
	f.StringVar(&o.policy, "policy", spectrometer.PolicyMaxPeak.String(), "zero-order policy: max or combined")
	f.Float64Var(&o.linesPerMM, "lines-per-mm", geo.LinesPerMM, "grating line density")
	f.Float64Var(&o.distanceMM, "distance-mm", geo.DistanceMM, "grating to sensor distance in mm")
	f.IntVar(&o.order, "order", geo.Order, "diffraction order")
	f.Float64Var(&o.pixelPitchMM, "pixel-pitch-mm", 0, "known sensor length per row in mm")
	f.IntVar(&o.refRow, "ref-row", -1, "calibration row at a known distance from the zero order")
	f.Float64Var(&o.refDistanceMM, "ref-distance-mm", 0, "sensor distance in mm between zero order and --ref-row")
	f.StringVar(&o.svgPath, "svg", "", "write a chart to this SVG file")
	f.StringVar(&o.csvDir, "csv-dir", "", "write profile.csv and peaks.csv to this directory")
	f.StringVar(&o.parquetDir, "parquet-dir", "", "write profile.parquet and peaks.parquet to this directory")

	return cmd
}

func (o *analyzeOptions) config() (spectrometer.Config, error) {
	policy, err := spectrometer.ParsePolicy(o.policy)
	if err != nil {
		return spectrometer.Config{}, fmt.Errorf("%w: %q", err, o.policy)
	}

	cfg := spectrometer.ApplyOptions(
		spectrometer.WithDetection(peak.ApplyOptions(
			peak.WithMinHeight(o.minHeight),
			peak.WithMinDistance(o.minDistance),
		)),
		spectrometer.WithSmoothing(o.smooth),
		spectrometer.WithGrating(grating.ApplyOptions(
			grating.WithLinesPerMM(o.linesPerMM),
			grating.WithDistanceMM(o.distanceMM),
			grating.WithOrder(o.order),
			grating.WithPixelPitchMM(o.pixelPitchMM),
		)),
		spectrometer.WithZeroOrderPolicy(policy),
	)
	return cfg, cfg.Validate()
}

func runAnalyze(out io.Writer, path string, o *analyzeOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}

	cfg, err := o.config()
	if err != nil {
		return err
	}

	s, err := spectrometer.NewSession(cfg, spectrometer.WithLogger(logger.With(zap.String("image", path))))
	if err != nil {
		return err
	}
	res, err := s.Load(path)
	if err != nil {
		return err
	}

	if o.refRow >= 0 {
		if res, err = s.Calibrate(spectrometer.CalibrationPoint{
			ReferenceRow:    o.refRow,
			KnownDistanceMM: o.refDistanceMM,
		}); err != nil {
			return err
		}
	}

	if err := printResult(out, path, res); err != nil {
		return err
	}
	return writeOutputs(res, o)
}

func writeOutputs(res *spectrometer.Result, o *analyzeOptions) error {
	if o.svgPath != "" {
		title := plot.WithTitle(filepath.Base(o.svgPath))
		if err := writeFile(o.svgPath, func(w io.Writer) error { return plot.SVG(w, res, title) }); err != nil {
			return err
		}
	}

	type table struct {
		name  string
		write func(io.Writer, *spectrometer.Result) error
	}
	dirs := []struct {
		dir    string
		tables []table
	}{
		{o.csvDir, []table{{"profile.csv", export.WriteProfileCSV}, {"peaks.csv", export.WritePeaksCSV}}},
		{o.parquetDir, []table{{"profile.parquet", export.WriteProfileParquet}, {"peaks.parquet", export.WritePeaksParquet}}},
	}

	for _, d := range dirs {
		if d.dir == "" {
			continue
		}
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			return err
		}
		for _, t := range d.tables {
			path := filepath.Join(d.dir, t.name)
			if err := writeFile(path, func(w io.Writer) error { return t.write(w, res) }); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	logger.Info("wrote output", zap.String("path", path))
	return nil
}
