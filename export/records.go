package export

import (
	"errors"

	"github.com/cwbudde/algo-spectro/spectrometer"
)

// ErrNilResult is returned when a writer is handed no result.
var ErrNilResult = errors.New("export: nil result")

// ProfileRecord is one row of the profile table.
type ProfileRecord struct {
	Row int64   `parquet:"row"`
	R   float64 `parquet:"r"`
	G   float64 `parquet:"g"`
	B   float64 `parquet:"b"`
}

// PeakRecord is one row of the peak table. WavelengthNM is nil when the
// result is uncalibrated.
type PeakRecord struct {
	Row          int64    `parquet:"row"`
	Channel      string   `parquet:"channel"`
	Intensity    float64  `parquet:"intensity"`
	WavelengthNM *float64 `parquet:"wavelength_nm,optional"`
	ZeroOrder    bool     `parquet:"zero_order"`
}

// ProfileRecords flattens the unsmoothed profile of res.
func ProfileRecords(res *spectrometer.Result) ([]ProfileRecord, error) {
	if res == nil {
		return nil, ErrNilResult
	}

	p := res.Profile
	out := make([]ProfileRecord, p.Height())
	for i := range out {
		out[i] = ProfileRecord{Row: int64(i), R: p.R[i], G: p.G[i], B: p.B[i]}
	}
	return out, nil
}

// PeakRecords flattens the peaks of res in R, G, B order.
func PeakRecords(res *spectrometer.Result) ([]PeakRecord, error) {
	if res == nil {
		return nil, ErrNilResult
	}

	peaks := res.AllPeaks()
	out := make([]PeakRecord, len(peaks))
	for i, p := range peaks {
		rec := PeakRecord{
			Row:       int64(p.Row),
			Channel:   p.Channel.String(),
			Intensity: p.Intensity,
			ZeroOrder: p.Row == res.ZeroOrder.Row && p.Channel == res.ZeroOrder.Channel,
		}
		if p.HasWavelength {
			nm := p.WavelengthNM
			rec.WavelengthNM = &nm
		}
		out[i] = rec
	}
	return out, nil
}
