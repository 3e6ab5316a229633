package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cwbudde/algo-spectro/spectrometer"
)

var (
	profileHeader = []string{"row", "r", "g", "b"}
	peakHeader    = []string{"row", "channel", "intensity", "wavelength_nm", "zero_order"}
)

// WriteProfileCSV writes the row profile of res to w.
func WriteProfileCSV(w io.Writer, res *spectrometer.Result) error {
	recs, err := ProfileRecords(res)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(profileHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{
			strconv.FormatInt(r.Row, 10),
			formatFloat(r.R),
			formatFloat(r.G),
			formatFloat(r.B),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePeaksCSV writes the peak list of res to w. The wavelength column is
// empty for uncalibrated results.
func WritePeaksCSV(w io.Writer, res *spectrometer.Result) error {
	recs, err := PeakRecords(res)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(peakHeader); err != nil {
		return err
	}
	for _, r := range recs {
		nm := ""
		if r.WavelengthNM != nil {
			nm = formatFloat(*r.WavelengthNM)
		}
		if err := cw.Write([]string{
			strconv.FormatInt(r.Row, 10),
			r.Channel,
			formatFloat(r.Intensity),
			nm,
			strconv.FormatBool(r.ZeroOrder),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
