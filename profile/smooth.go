package profile

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Smooth returns a copy of p with every channel low-passed by a
// Hann-windowed sinc kernel of 2*width+1 taps. The cutoff is 1/(2*width)
// cycles per row, so features narrower than about width rows are
// attenuated. Edges are extended by repeating the first and last row, which
// keeps a constant profile constant.
//
// A width of 0 returns p itself.
func (p RowProfile) Smooth(width int) (RowProfile, error) {
	if width < 0 {
		return RowProfile{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if err := p.Validate(); err != nil {
		return RowProfile{}, err
	}
	if width == 0 || p.Height() == 0 {
		return p, nil
	}

	s, err := newSmoother(LowpassKernel(width), p.Height())
	if err != nil {
		return RowProfile{}, err
	}

	var out RowProfile
	if out.R, err = s.apply(p.R); err != nil {
		return RowProfile{}, err
	}
	if out.G, err = s.apply(p.G); err != nil {
		return RowProfile{}, err
	}
	if out.B, err = s.apply(p.B); err != nil {
		return RowProfile{}, err
	}

	return out, nil
}

// LowpassKernel returns the normalised 2*width+1 tap smoothing kernel used
// by [RowProfile.Smooth]. Its taps sum to 1.
func LowpassKernel(width int) []float64 {
	if width <= 0 {
		return []float64{1}
	}

	n := 2*width + 1
	cutoff := 0.5 / float64(width)

	sinc := make([]float64, n)
	hann := make([]float64, n)
	for i := range sinc {
		x := 2 * cutoff * float64(i-width)
		sinc[i] = 2 * cutoff * normalizedSinc(x)
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	kernel := make([]float64, n)
	vecmath.MulBlock(kernel, sinc, hann)

	if sum := floats.Sum(kernel); sum != 0 {
		floats.Scale(1/sum, kernel)
	}

	return kernel
}

func normalizedSinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// smoother convolves edge-extended sequences of a fixed length with a
// symmetric kernel through one FFT plan.
type smoother struct {
	half      int
	length    int
	plan      *algofft.Plan[complex128]
	kernelFFT []complex128
	work      []complex128
}

func newSmoother(kernel []float64, length int) (*smoother, error) {
	half := (len(kernel) - 1) / 2
	padded := length + 2*half
	fftSize := nextPowerOf2(padded + len(kernel) - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to create FFT plan: %w", err)
	}

	s := &smoother{
		half:      half,
		length:    length,
		plan:      plan,
		kernelFFT: make([]complex128, fftSize),
		work:      make([]complex128, fftSize),
	}

	for i, v := range kernel {
		s.work[i] = complex(v, 0)
	}
	if err := plan.Forward(s.kernelFFT, s.work); err != nil {
		return nil, fmt.Errorf("profile: kernel FFT failed: %w", err)
	}

	return s, nil
}

// apply returns the convolution of x with the kernel, trimmed to len(x).
func (s *smoother) apply(x []float64) ([]float64, error) {
	for i := range s.work {
		s.work[i] = 0
	}

	// Edge extension: x[0] repeated half times, x, x[n-1] repeated half times.
	first, last := x[0], x[len(x)-1]
	for i := 0; i < s.half; i++ {
		s.work[i] = complex(first, 0)
		s.work[s.half+s.length+i] = complex(last, 0)
	}
	for i, v := range x {
		s.work[s.half+i] = complex(v, 0)
	}

	if err := s.plan.Forward(s.work, s.work); err != nil {
		return nil, fmt.Errorf("profile: forward FFT failed: %w", err)
	}
	for i := range s.work {
		s.work[i] *= s.kernelFFT[i]
	}
	if err := s.plan.Inverse(s.work, s.work); err != nil {
		return nil, fmt.Errorf("profile: inverse FFT failed: %w", err)
	}

	// Row i sits at padded index i+half; the kernel centre adds another half.
	out := make([]float64, s.length)
	for i := range out {
		out[i] = real(s.work[i+2*s.half])
	}

	return out, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
