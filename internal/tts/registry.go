package tts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteRegistry caches the voice catalog to a local CSV.
func WriteRegistry(path string, voices []Voice) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"voice_id", "name", "category"}); err != nil {
		return err
	}
	for _, v := range voices {
		if err := w.Write([]string{v.ID, v.Name, v.Category}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadRegistry loads a cached voice registry CSV.
func ReadRegistry(path string) ([]Voice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("registry %s has no voices", path)
	}

	voices := make([]Voice, 0, len(records)-1)
	for _, rec := range records[1:] {
		v := Voice{ID: rec[0]}
		if len(rec) > 1 {
			v.Name = rec[1]
		}
		if len(rec) > 2 {
			v.Category = rec[2]
		}
		if v.ID != "" {
			voices = append(voices, v)
		}
	}
	return voices, nil
}
