// Package spectrometer turns a photographed diffraction pattern into an
// approximate spectrum.
//
// The pipeline runs in fixed stages:
//
//	image -> row profile -> per-channel peaks -> zero-order peak
//	      -> (calibration) pixel pitch -> wavelength of every peak
//
// [Analyze] runs the whole pipeline once for a file and a [Config]. A
// [Session] keeps the row profile and the pixel pitch of an interactive
// session so that changing detection parameters never decodes the image
// again and a calibration can be applied after the fact.
//
// Results are immutable. Every stage either completes or reports one of
// [ErrDecode], [ErrNoPeaks], [ErrInvalidCalibration] or [ErrUncalibrated];
// partial results are never returned.
package spectrometer
