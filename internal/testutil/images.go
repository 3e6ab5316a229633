package testutil

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// Line is one bright horizontal line of a synthetic diffraction pattern.
type Line struct {
	Row   int
	Color color.NRGBA
}

// DiffractionImage returns a width x height image filled with background
// and with every row listed in lines painted in that line's colour.
func DiffractionImage(width, height int, background color.NRGBA, lines ...Line) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := background
		for _, l := range lines {
			if l.Row == y {
				c = l.Color
			}
		}
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// ZeroOrderPattern is the canonical 1x100 test pattern: a white zero-order
// line at row 50 and a red first-order line at row 70 on a dark background.
func ZeroOrderPattern() *image.NRGBA {
	return DiffractionImage(1, 100, Gray(10),
		Line{Row: 50, Color: color.NRGBA{R: 250, G: 250, B: 250, A: 255}},
		Line{Row: 70, Color: color.NRGBA{R: 200, G: 10, B: 10, A: 255}},
	)
}

// Gray returns an opaque gray level.
func Gray(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

// WriteJPEG encodes img at maximum quality into dir/name and returns the path.
func WriteJPEG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}
