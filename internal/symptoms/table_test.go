package symptoms

import (
	"os"
	"path/filepath"
	"testing"

	"resqme/pkg/util"
)

func writeMatrix(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrix.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write matrix: %v", err)
	}
	return path
}

func TestLoadAndSymptoms(t *testing.T) {
	path := writeMatrix(t, "\uFEFFdisease,fever,cough,rash\nflu,1,1,0\nmeasles,1,0,1\nhealthy,0,0,0\n")

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := tbl.Diseases(0)
	want := []string{"flu", "measles", "healthy"}
	if len(got) != len(want) {
		t.Fatalf("expected %d diseases, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected diseases %v, got %v", want, got)
		}
	}

	if s := tbl.SymptomsFor("flu"); !util.SameMembers(s, []string{"fever", "cough"}) {
		t.Fatalf("expected flu symptoms [fever cough], got %v", s)
	}
	if s := tbl.SymptomsFor("healthy"); len(s) != 0 {
		t.Fatalf("expected no symptoms for healthy, got %v", s)
	}
	if s := tbl.SymptomsFor("unknown"); len(s) != 0 {
		t.Fatalf("expected no symptoms for unknown disease, got %v", s)
	}
}

func TestDiseasesCap(t *testing.T) {
	path := writeMatrix(t, "disease,a\nd1,1\nd2,1\nd3,1\n")
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tbl.Diseases(2); len(got) != 2 || got[0] != "d1" || got[1] != "d2" {
		t.Fatalf("expected first two diseases, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEmptyMatrix(t *testing.T) {
	path := writeMatrix(t, "disease,fever\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for matrix without disease rows")
	}
}
