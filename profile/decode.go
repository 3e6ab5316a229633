package profile

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// FromFile decodes the JPEG file at path and returns its row profile.
// Any failure to open or decode the file wraps [ErrDecode].
func FromFile(path string) (RowProfile, error) {
	img, err := ReadImage(path)
	if err != nil {
		return RowProfile{}, err
	}

	return FromImage(img)
}

// ReadImage opens and decodes the JPEG file at path.
// Any failure wraps [ErrDecode].
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	return img, nil
}

// Decode reads a JPEG stream and returns its row profile.
func Decode(r io.Reader) (RowProfile, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return RowProfile{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return FromImage(img)
}

// FromImage computes the mean of each channel across all columns of every
// row of img. Images that are not already 8-bit NRGBA are converted first.
func FromImage(img image.Image) (RowProfile, error) {
	if img == nil {
		return RowProfile{}, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyImage)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return RowProfile{}, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyImage)
	}

	src := toNRGBA(img)
	p := RowProfile{
		R: make([]float64, height),
		G: make([]float64, height),
		B: make([]float64, height),
	}

	r := make([]float64, width)
	g := make([]float64, width)
	bl := make([]float64, width)

	for y := 0; y < height; y++ {
		off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		for x := 0; x < width; x++ {
			px := src.Pix[off+4*x : off+4*x+3 : off+4*x+3]
			r[x] = float64(px[0])
			g[x] = float64(px[1])
			bl[x] = float64(px[2])
		}

		p.R[y] = stat.Mean(r, nil)
		p.G[y] = stat.Mean(g, nil)
		p.B[y] = stat.Mean(bl, nil)
	}

	return p, nil
}

// toNRGBA returns img as non-premultiplied 8-bit RGBA, converting when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
