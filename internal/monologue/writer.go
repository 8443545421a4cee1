package monologue

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Row is one generated monologue.
type Row struct {
	Disease       string
	SymptomsUsed  []string
	GeneratedCall string
}

var header = []string{"disease", "symptoms_used", "generated_call"}

// Writer appends rows to the output CSV one at a time, flushing each before
// the next network call starts. A crash loses at most the in-flight row.
type Writer struct {
	f    *os.File
	path string
}

// OpenWriter opens (or creates) the output CSV in append mode, writing the
// header only when the file is new or empty.
func OpenWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output csv: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output csv: %w", err)
	}
	if st.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}

	return &Writer{f: f, path: path}, nil
}

// Append writes one row and flushes it to disk immediately.
func (w *Writer) Append(row Row) error {
	cw := csv.NewWriter(w.f)
	record := []string{row.Disease, strings.Join(row.SymptomsUsed, ", "), row.GeneratedCall}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return w.f.Sync()
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Close() error { return w.f.Close() }
