// Package peak finds local maxima in one-dimensional intensity sequences.
//
// [Find] mirrors the classic height/distance peak finder: a sample is a
// candidate when it rises above its left neighbour and is followed, after an
// optional flat plateau, by a lower sample. Candidates below
// [Config.MinHeight] are dropped, then candidates are accepted from the
// highest down and any candidate closer than [Config.MinDistance] to an
// accepted one is discarded.
//
// The detector does not interpolate between samples; peak positions are
// integer indices.
package peak
