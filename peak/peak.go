package peak

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by peak detection.
var (
	ErrInvalidHeight   = errors.New("peak: minimum height must be a non-negative number")
	ErrInvalidDistance = errors.New("peak: minimum distance must be at least 1")
)

// Config holds the peak acceptance thresholds.
type Config struct {
	// MinHeight is the lowest intensity a peak may have.
	MinHeight float64
	// MinDistance is the smallest index separation between two peaks.
	MinDistance int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the thresholds used when none are supplied.
func DefaultConfig() Config {
	return Config{
		MinHeight:   5,
		MinDistance: 10,
	}
}

// WithMinHeight sets the minimum peak height.
func WithMinHeight(h float64) Option {
	return func(cfg *Config) {
		cfg.MinHeight = h
	}
}

// WithMinDistance sets the minimum separation between peaks.
func WithMinDistance(d int) Option {
	return func(cfg *Config) {
		cfg.MinDistance = d
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if math.IsNaN(c.MinHeight) || math.IsInf(c.MinHeight, 0) || c.MinHeight < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidHeight, c.MinHeight)
	}
	if c.MinDistance < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDistance, c.MinDistance)
	}
	return nil
}

// Find returns the indices of the peaks of x in ascending order.
//
// Every returned index i satisfies x[i] >= cfg.MinHeight, and no two
// returned indices are closer than cfg.MinDistance. When two candidates
// compete for the same neighbourhood the higher one wins; equal heights are
// resolved in favour of the smaller index. A sequence without qualifying
// samples yields an empty, non-nil slice.
func Find(x []float64, cfg Config) ([]int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	candidates := localMaxima(x)

	tall := candidates[:0]
	for _, i := range candidates {
		if x[i] >= cfg.MinHeight {
			tall = append(tall, i)
		}
	}

	return selectByDistance(x, tall, cfg.MinDistance), nil
}

// Heights returns x[i] for each index in idx.
func Heights(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = x[i]
	}
	return out
}

// localMaxima returns ascending candidate indices. A flat top is reported
// once, at the middle of the plateau (rounded down). The first and last
// samples are never candidates.
func localMaxima(x []float64) []int {
	out := make([]int, 0, 8)
	last := len(x) - 1

	i := 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}

	return out
}

// selectByDistance keeps the highest peaks of an ascending index list such
// that no two kept peaks are closer than distance.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return append(make([]int, 0, len(peaks)), peaks...)
	}

	order := make([]int, len(peaks))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] > x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for k := range keep {
		keep[k] = true
	}

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for k, p := range peaks {
		if keep[k] {
			out = append(out, p)
		}
	}
	return out
}
