package commands

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/cwbudde/algo-spectro/spectrometer"
)

func printResult(out io.Writer, path string, res *spectrometer.Result) error {
	if _, err := fmt.Fprintf(out, "Image:       %s (%d rows)\n", path, res.Profile.Height()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Zero order:  row %d (%v, %.1f)\n",
		res.ZeroOrder.Row, res.ZeroOrder.Channel, res.ZeroOrder.Intensity); err != nil {
		return err
	}
	pitch := "uncalibrated"
	if res.Calibrated() {
		pitch = fmt.Sprintf("%.6g mm/row", res.PixelPitchMM())
	}
	if _, err := fmt.Fprintf(out, "Pixel pitch: %s\n\n", pitch); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Channel\tRow\tOffset\tIntensity\tAngle [deg]\tWavelength [nm]\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "-------\t---\t------\t---------\t-----------\t---------------\n"); err != nil {
		return err
	}

	for _, p := range res.AllPeaks() {
		angle, nm := "-", "-"
		if p.HasWavelength {
			nm = fmt.Sprintf("%.1f", p.WavelengthNM)
			if rad, err := res.Grating.Angle(res.ZeroOrder.Row, p.Row); err == nil {
				angle = fmt.Sprintf("%.3f", rad*180/math.Pi)
			}
		}
		label := p.Channel.String()
		if p.Row == res.ZeroOrder.Row && p.Channel == res.ZeroOrder.Channel {
			label += " *"
		}

		if _, err := fmt.Fprintf(tw, "%s\t%d\t%+d\t%.1f\t%s\t%s\n",
			label,
			p.Row,
			p.Row-res.ZeroOrder.Row,
			p.Intensity,
			angle,
			nm,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
