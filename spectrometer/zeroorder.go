package spectrometer

import (
	"github.com/cwbudde/algo-spectro/profile"
)

// Peak is one detected spectral peak.
type Peak struct {
	Row       int
	Channel   profile.Channel
	Intensity float64

	// WavelengthNM is valid only when HasWavelength is set, which happens
	// once the session is calibrated. The zero-order peak gets 0.
	WavelengthNM  float64
	HasWavelength bool
}

// ZeroOrderPolicy selects how the undiffracted peak is identified.
type ZeroOrderPolicy int

const (
	// PolicyMaxPeak picks the single highest peak of any channel.
	PolicyMaxPeak ZeroOrderPolicy = iota
	// PolicyCombined picks the peak whose row has the highest R+G+B sum.
	PolicyCombined
)

func (p ZeroOrderPolicy) valid() bool {
	return p == PolicyMaxPeak || p == PolicyCombined
}

// String returns the policy name used on the command line.
func (p ZeroOrderPolicy) String() string {
	switch p {
	case PolicyMaxPeak:
		return "max"
	case PolicyCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name back to a ZeroOrderPolicy.
func ParsePolicy(name string) (ZeroOrderPolicy, error) {
	switch name {
	case "max", "":
		return PolicyMaxPeak, nil
	case "combined":
		return PolicyCombined, nil
	default:
		return 0, ErrUnknownPolicy
	}
}

// LocateZeroOrder returns the peak with the highest intensity across all
// channels. Ties go to the smallest row, then to channel order R, G, B.
// An empty set returns [ErrNoPeaks].
func LocateZeroOrder(peaks []Peak) (Peak, error) {
	return locateBy(peaks, func(p Peak) float64 { return p.Intensity })
}

// LocateZeroOrderCombined scores every peak by the R+G+B sum of its row in
// p and returns the best one, with the same tie rules as [LocateZeroOrder].
func LocateZeroOrderCombined(peaks []Peak, p profile.RowProfile) (Peak, error) {
	combined := p.Combined()
	return locateBy(peaks, func(pk Peak) float64 {
		if pk.Row < 0 || pk.Row >= len(combined) {
			return pk.Intensity
		}
		return combined[pk.Row]
	})
}

func locateZeroOrder(policy ZeroOrderPolicy, peaks []Peak, p profile.RowProfile) (Peak, error) {
	if policy == PolicyCombined {
		return LocateZeroOrderCombined(peaks, p)
	}
	return LocateZeroOrder(peaks)
}

func locateBy(peaks []Peak, score func(Peak) float64) (Peak, error) {
	if len(peaks) == 0 {
		return Peak{}, ErrNoPeaks
	}

	best := peaks[0]
	bestScore := score(best)
	for _, pk := range peaks[1:] {
		s := score(pk)
		switch {
		case s > bestScore:
		case s == bestScore && pk.Row < best.Row:
		case s == bestScore && pk.Row == best.Row && pk.Channel < best.Channel:
		default:
			continue
		}
		best, bestScore = pk, s
	}

	return best, nil
}
