package symptoms

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Table is a disease/symptom association matrix loaded from CSV. The first
// column holds disease names, the header row holds symptom names, and a
// truthy cell associates the two. Load-once, read-only.
type Table struct {
	diseases []string
	names    []string
	present  map[string][]string
}

// Load reads a matrix CSV. UTF-8 BOM is tolerated.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symptom table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read symptom table: %w", err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, fmt.Errorf("symptom table %s: need a header row and at least one disease row", path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	names := make([]string, len(header)-1)
	for i, h := range header[1:] {
		names[i] = strings.TrimSpace(h)
	}

	t := &Table{
		names:   names,
		present: make(map[string][]string, len(records)-1),
	}
	for _, row := range records[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		disease := strings.TrimSpace(row[0])
		var have []string
		for i, cell := range row[1:] {
			if i >= len(names) {
				break
			}
			if truthy(cell) {
				have = append(have, names[i])
			}
		}
		if _, dup := t.present[disease]; !dup {
			t.diseases = append(t.diseases, disease)
		}
		t.present[disease] = have
	}
	if len(t.diseases) == 0 {
		return nil, fmt.Errorf("symptom table %s: no disease rows", path)
	}
	return t, nil
}

func truthy(cell string) bool {
	s := strings.TrimSpace(cell)
	return s != "" && s != "0" && !strings.EqualFold(s, "false")
}

// Diseases returns disease names in table order, capped to max when max > 0.
func (t *Table) Diseases(max int) []string {
	d := t.diseases
	if max > 0 && max < len(d) {
		d = d[:max]
	}
	return append([]string(nil), d...)
}

// SymptomsFor returns the symptoms marked present for a disease, in column order.
func (t *Table) SymptomsFor(disease string) []string {
	return append([]string(nil), t.present[disease]...)
}
