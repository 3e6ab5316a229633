package export

import (
	"fmt"
	"io"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/cwbudde/algo-spectro/spectrometer"
)

// WriteProfileParquet writes the row profile of res to w as one Parquet file.
func WriteProfileParquet(w io.Writer, res *spectrometer.Result) error {
	recs, err := ProfileRecords(res)
	if err != nil {
		return err
	}
	return writeParquet(w, recs)
}

// WritePeaksParquet writes the peak list of res to w as one Parquet file.
func WritePeaksParquet(w io.Writer, res *spectrometer.Result) error {
	recs, err := PeakRecords(res)
	if err != nil {
		return err
	}
	return writeParquet(w, recs)
}

// ReadProfileParquet reads a file written by [WriteProfileParquet].
func ReadProfileParquet(r io.ReaderAt) ([]ProfileRecord, error) {
	return readParquet[ProfileRecord](r)
}

// ReadPeaksParquet reads a file written by [WritePeaksParquet].
func ReadPeaksParquet(r io.ReaderAt) ([]PeakRecord, error) {
	return readParquet[PeakRecord](r)
}

func writeParquet[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("export: write parquet: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("export: close parquet: %w", err)
	}
	return nil
}

func readParquet[T any](r io.ReaderAt) ([]T, error) {
	gr := parquet.NewGenericReader[T](r)
	defer gr.Close()

	out := make([]T, 0, gr.NumRows())
	batch := make([]T, 256)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: read parquet: %w", err)
		}
	}
	return out, nil
}
