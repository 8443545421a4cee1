package tts

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSynthesizeWritesExactBytes(t *testing.T) {
	want := []byte("not-really-mp3-bytes")
	var gotKey, gotVoice string
	var gotReq synthesizeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		gotVoice = strings.TrimPrefix(r.URL.Path, "/text-to-speech/")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(want)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	out := filepath.Join(t.TempDir(), "utt_0001.mp3")
	opt := SynthesisOptions{ModelID: "eleven_monolingual_v1", OutputFormat: "mp3_44100_128", Stability: 0.3, SimilarityBoost: 0.75, SpeakerBoost: true}

	if err := c.SynthesizeToFile(context.Background(), "voice123", "I can't breathe", out, opt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("file bytes differ from endpoint bytes")
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotVoice != "voice123" {
		t.Fatalf("expected voice in path, got %q", gotVoice)
	}
	if gotReq.ModelID != "eleven_monolingual_v1" {
		t.Fatalf("expected model untouched, got %q", gotReq.ModelID)
	}
	if !gotReq.VoiceSettings.UseSpeakerBoost {
		t.Fatal("expected speaker boost in voice settings")
	}
}

func TestSynthesizeUpgradesModelForAudioTags(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.ModelID
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Synthesize(context.Background(), "v", "[sobbing] he just fell", SynthesisOptions{ModelID: "eleven_monolingual_v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotModel != "eleven_v3" {
		t.Fatalf("expected model upgraded to eleven_v3, got %q", gotModel)
	}
}

func TestListVoicesAndRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]string{
				{"voice_id": "v2", "name": "Zoe", "category": "premade"},
				{"voice_id": "v1", "name": "Adam", "category": "premade"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	voices, err := c.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}

	picked, err := PickVoice(voices)
	if err != nil {
		t.Fatalf("pick voice: %v", err)
	}
	if picked != "v1" {
		t.Fatalf("expected deterministic pick v1 (Adam), got %q", picked)
	}

	path := filepath.Join(t.TempDir(), "voices.csv")
	if err := WriteRegistry(path, voices); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	back, err := ReadRegistry(path)
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	if len(back) != 2 || back[0].ID != "v2" || back[0].Name != "Zoe" {
		t.Fatalf("registry roundtrip mismatch: %+v", back)
	}
}

func TestRetryableClassification(t *testing.T) {
	if !Retryable(&APIError{StatusCode: 429}) {
		t.Fatal("expected 429 retryable")
	}
	if !Retryable(&APIError{StatusCode: 502}) {
		t.Fatal("expected 502 retryable")
	}
	if Retryable(&APIError{StatusCode: 401}) {
		t.Fatal("expected 401 fatal")
	}
	if Retryable(context.Canceled) {
		t.Fatal("expected canceled non-retryable")
	}
}

func writeMonologueCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.csv")
	content := strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestSynthesizeCSVFixedVoice(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	csvPath := writeMonologueCSV(t,
		"disease,symptoms_used,generated_call",
		"flu,\"fever, cough\",Please hurry",
		"cold,sneezing,He collapsed",
	)
	outDir := t.TempDir()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.SynthesizeCSV(context.Background(), csvPath, BatchOptions{
		VoiceID:   "fixed",
		OutDir:    outDir,
		Synthesis: SynthesisOptions{ModelID: "eleven_v3"},
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 synthesis calls, got %d", calls.Load())
	}
	// No id column: ids are synthesized positionally.
	for i, want := range []string{"utt_0000", "utt_0001"} {
		if results[i].ID != want {
			t.Fatalf("expected id %s, got %s", want, results[i].ID)
		}
		b, err := os.ReadFile(filepath.Join(outDir, want+".mp3"))
		if err != nil {
			t.Fatalf("missing output for %s: %v", want, err)
		}
		if string(b) != "audio-bytes" {
			t.Fatalf("unexpected bytes for %s", want)
		}
	}
}

func TestSynthesizeCSVRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	csvPath := writeMonologueCSV(t,
		"id,text",
		"row1,Please hurry",
	)

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.SynthesizeCSV(context.Background(), csvPath, BatchOptions{
		VoiceID:    "v",
		OutDir:     t.TempDir(),
		MaxRetries: 3,
		Delay:      time.Millisecond,
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected one successful result, got %+v", results)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestSynthesizeCSVFatalRowSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	csvPath := writeMonologueCSV(t,
		"id,monologue",
		"a,First",
		"b,",
		"c,Third",
	)

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.SynthesizeCSV(context.Background(), csvPath, BatchOptions{
		VoiceID: "v",
		OutDir:  t.TempDir(),
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("batch should continue past row failures: %v", err)
	}
	// Row b has empty text and is skipped outright; a and c fail fatally.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err == nil {
			t.Fatalf("expected row error for %s", r.ID)
		}
	}
}

func TestSynthesizeCSVHeaderOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	csvPath := writeMonologueCSV(t, "disease,symptoms_used,generated_call")

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.SynthesizeCSV(context.Background(), csvPath, BatchOptions{
		VoiceID: "v",
		OutDir:  t.TempDir(),
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("header-only input is an empty batch, not an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no synthesis calls, got %d", calls.Load())
	}
}

func TestAddVoice(t *testing.T) {
	var gotName, gotDesc string
	var gotFiles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices/add" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotName = r.FormValue("name")
		gotDesc = r.FormValue("description")
		for _, fh := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, fh.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"voice_id": "newvoice42"})
	}))
	defer srv.Close()

	dir := t.TempDir()
	samples := []string{filepath.Join(dir, "a.mp3"), filepath.Join(dir, "b.mp3")}
	for _, p := range samples {
		if err := os.WriteFile(p, []byte("sample"), 0o644); err != nil {
			t.Fatalf("write sample: %v", err)
		}
	}

	c := NewClient("k", WithBaseURL(srv.URL))
	vid, err := c.AddVoice(context.Background(), "Caller", "panicked caller", samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vid != "newvoice42" {
		t.Fatalf("expected voice id from response, got %q", vid)
	}
	if gotName != "Caller" || gotDesc != "panicked caller" {
		t.Fatalf("form fields = %q/%q", gotName, gotDesc)
	}
	if len(gotFiles) != 2 || gotFiles[0] != "a.mp3" || gotFiles[1] != "b.mp3" {
		t.Fatalf("expected both samples attached, got %v", gotFiles)
	}

	if _, err := c.AddVoice(context.Background(), "", "", samples); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := c.AddVoice(context.Background(), "Caller", "", nil); err == nil {
		t.Fatal("expected error for no samples")
	}
}

func TestFindTextColumn(t *testing.T) {
	header := []string{"disease", "symptoms_used", "generated_call"}
	idx, err := findTextColumn(header, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Fatalf("expected generated_call at 2, got %d", idx)
	}

	if _, err := findTextColumn([]string{"a", "b"}, ""); err == nil {
		t.Fatal("expected inference failure")
	}
	if _, err := findTextColumn(header, "missing"); err == nil {
		t.Fatal("expected explicit column failure")
	}
}
