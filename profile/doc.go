// Package profile reduces a decoded image to per-row RGB intensity profiles.
//
// A [RowProfile] holds one value per image row for each of the red, green
// and blue channels: the arithmetic mean of that channel across every column
// of the row. Row 0 is the top row of the image. Values of an 8-bit image
// always lie in [0, 255].
//
// # Usage
//
//	p, err := profile.FromFile("pattern.jpg")
//	if errors.Is(err, profile.ErrDecode) {
//		// not a readable JPEG
//	}
//	red := p.Channel(profile.Red)
//
// [RowProfile.Smooth] returns a low-passed copy for noisy photographs; the
// receiver is never modified.
package profile
