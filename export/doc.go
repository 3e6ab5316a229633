// Package export writes spectrometer results as tables for external
// plotting and analysis tools.
//
// Two tables exist per result: the row profile (one record per image row)
// and the peak list (one record per detected peak). Each can be written as
// CSV or as Snappy-compressed Parquet.
package export
