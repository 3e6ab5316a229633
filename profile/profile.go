package profile

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by profile functions.
var (
	ErrDecode        = errors.New("profile: cannot decode image")
	ErrEmptyImage    = errors.New("profile: image has no pixels")
	ErrChannelLength = errors.New("profile: channel lengths differ")
	ErrInvalidWidth  = errors.New("profile: smoothing width must be non-negative")
)

// Channel identifies one colour channel of a profile.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the channels in profile order.
var Channels = [...]Channel{Red, Green, Blue}

// String returns the single-letter channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// RowProfile holds the row-averaged intensity of each channel.
// All three slices have the same length, the image height.
type RowProfile struct {
	R []float64
	G []float64
	B []float64
}

// Height returns the number of rows.
func (p RowProfile) Height() int {
	return len(p.R)
}

// Channel returns the intensity sequence of c, or nil for an unknown channel.
// The returned slice is shared with the profile and must not be modified.
func (p RowProfile) Channel(c Channel) []float64 {
	switch c {
	case Red:
		return p.R
	case Green:
		return p.G
	case Blue:
		return p.B
	default:
		return nil
	}
}

// Rows returns the row indices 0..Height()-1.
func (p RowProfile) Rows() []int {
	rows := make([]int, p.Height())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// Combined returns R+G+B for every row.
func (p RowProfile) Combined() []float64 {
	out := make([]float64, p.Height())
	if len(out) == 0 {
		return out
	}
	copy(out, p.R)
	floats.Add(out, p.G)
	floats.Add(out, p.B)
	return out
}

// Validate reports whether the three channels have equal length.
func (p RowProfile) Validate() error {
	if len(p.G) != len(p.R) || len(p.B) != len(p.R) {
		return fmt.Errorf("%w: R=%d G=%d B=%d", ErrChannelLength, len(p.R), len(p.G), len(p.B))
	}
	return nil
}

// Clone returns a deep copy of p.
func (p RowProfile) Clone() RowProfile {
	return RowProfile{
		R: append([]float64(nil), p.R...),
		G: append([]float64(nil), p.G...),
		B: append([]float64(nil), p.B...),
	}
}
