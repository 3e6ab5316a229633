// Package plot renders a spectrometer result as an SVG line chart.
//
// The chart shows the three channel intensities against the image row with
// the row axis reversed, so that rows read right to left like the camera
// preview. Detected peaks are marked and labelled with their row and, once
// calibrated, their wavelength.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/cwbudde/algo-spectro/profile"
	"github.com/cwbudde/algo-spectro/spectrometer"
)

// ErrNilResult is returned when SVG is handed no result.
var ErrNilResult = errors.New("plot: nil result")

// ErrInvalidSize is returned for a canvas too small to hold the axes.
var ErrInvalidSize = errors.New("plot: canvas too small")

// Config controls the chart layout.
type Config struct {
	Width, Height int
	Margin        int
	Title         string
	// Smoothed plots the smoothed profile when the result carries one.
	Smoothed bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns an 800x400 chart with a 50 px margin.
func DefaultConfig() Config {
	return Config{Width: 800, Height: 400, Margin: 50, Title: "Spectrum"}
}

// WithSize sets the canvas size in pixels.
func WithSize(width, height int) Option {
	return func(cfg *Config) {
		cfg.Width, cfg.Height = width, height
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(cfg *Config) {
		cfg.Title = title
	}
}

// WithSmoothed plots the smoothed profile instead of the raw one.
func WithSmoothed(on bool) Option {
	return func(cfg *Config) {
		cfg.Smoothed = on
	}
}

var channelStroke = [...]string{
	profile.Red:   "#d62728",
	profile.Green: "#2ca02c",
	profile.Blue:  "#1f77b4",
}

// SVG writes a chart of res to w.
func SVG(w io.Writer, res *spectrometer.Result, opts ...Option) error {
	if res == nil {
		return ErrNilResult
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Width <= 2*cfg.Margin || cfg.Height <= 2*cfg.Margin {
		return fmt.Errorf("%w: %dx%d with margin %d", ErrInvalidSize, cfg.Width, cfg.Height, cfg.Margin)
	}

	p := res.Profile
	if cfg.Smoothed && res.Smoothed != nil {
		p = *res.Smoothed
	}

	ax := newAxes(cfg, p)
	canvas := svg.New(w)
	canvas.Start(cfg.Width, cfg.Height)
	canvas.Title(cfg.Title)
	canvas.Rect(0, 0, cfg.Width, cfg.Height, "fill:white")

	drawFrame(canvas, cfg, ax)

	for _, c := range profile.Channels {
		ys := p.Channel(c)
		xs := make([]int, len(ys))
		py := make([]int, len(ys))
		for row, v := range ys {
			xs[row], py[row] = ax.x(row), ax.y(v)
		}
		canvas.Polyline(xs, py, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", channelStroke[c]))
	}

	zx := ax.x(res.ZeroOrder.Row)
	canvas.Line(zx, cfg.Margin, zx, cfg.Height-cfg.Margin, "stroke:black;stroke-dasharray:4,3")
	canvas.Text(zx, cfg.Margin-6, "0th", "font-size:10px;text-anchor:middle")

	canvas.Gstyle("font-size:9px;text-anchor:middle")
	for _, pk := range res.AllPeaks() {
		x, y := ax.x(pk.Row), ax.y(markerHeight(p, pk))
		canvas.Circle(x, y, 3, "fill:"+channelStroke[pk.Channel])
		canvas.Text(x, y-6, peakLabel(pk))
	}
	canvas.Gend()

	canvas.End()
	return nil
}

// markerHeight returns the plotted value of p at the peak row.
func markerHeight(p profile.RowProfile, pk spectrometer.Peak) float64 {
	ch := p.Channel(pk.Channel)
	if pk.Row < 0 || pk.Row >= len(ch) {
		return pk.Intensity
	}
	return ch[pk.Row]
}

func peakLabel(pk spectrometer.Peak) string {
	if pk.HasWavelength {
		return fmt.Sprintf("%d: %.0f nm", pk.Row, pk.WavelengthNM)
	}
	return fmt.Sprintf("%d", pk.Row)
}

// axes maps rows and intensities to canvas pixels. Row 0 is on the right.
type axes struct {
	left, right, top, bottom int
	rows                     int
	maxY                     float64
}

func newAxes(cfg Config, p profile.RowProfile) axes {
	maxY := 255.0
	for _, c := range profile.Channels {
		for _, v := range p.Channel(c) {
			maxY = math.Max(maxY, v)
		}
	}
	return axes{
		left:   cfg.Margin,
		right:  cfg.Width - cfg.Margin,
		top:    cfg.Margin,
		bottom: cfg.Height - cfg.Margin,
		rows:   p.Height(),
		maxY:   maxY,
	}
}

func (a axes) x(row int) int {
	span := a.rows - 1
	if span < 1 {
		span = 1
	}
	frac := float64(row) / float64(span)
	return a.right - int(math.Round(frac*float64(a.right-a.left)))
}

func (a axes) y(v float64) int {
	frac := math.Max(0, v) / a.maxY
	return a.bottom - int(math.Round(frac*float64(a.bottom-a.top)))
}

func drawFrame(canvas *svg.SVG, cfg Config, ax axes) {
	canvas.Gstyle("stroke:#444;stroke-width:1;fill:none")
	canvas.Line(ax.left, ax.bottom, ax.right, ax.bottom)
	canvas.Line(ax.left, ax.top, ax.left, ax.bottom)
	canvas.Gend()

	canvas.Gstyle("font-size:10px;text-anchor:middle")
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		row := int(math.Round(float64(i) * float64(max(ax.rows-1, 0)) / ticks))
		x := ax.x(row)
		canvas.Line(x, ax.bottom, x, ax.bottom+4, "stroke:#444")
		canvas.Text(x, ax.bottom+16, fmt.Sprintf("%d", row))
	}
	canvas.Text((ax.left+ax.right)/2, cfg.Height-10, "row")
	canvas.Text(cfg.Margin/2, (ax.top+ax.bottom)/2, "intensity")
	canvas.Gend()
}
