// Package grating converts sensor positions to wavelengths for a
// transmission diffraction grating.
//
// The geometry is the usual bench set-up: a grating with a given line
// density sits at distance L in front of the sensor. Light diffracted into
// order m lands at a lateral offset Δx from the undiffracted zero-order
// spot, with
//
//	tan θ = Δx / L
//	d sin θ = m λ,  d = 1 / lines-per-length
//
// Pixel offsets become physical offsets through the pixel pitch, which
// [PixelPitch] derives from one calibration point at a known distance from
// the zero order. All lengths are in millimetres; wavelengths are returned
// in nanometres.
package grating
