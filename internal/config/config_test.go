package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Generate.CallsPerDisease != 10 {
		t.Fatalf("calls_per_disease = %d, want 10", cfg.Generate.CallsPerDisease)
	}
	if cfg.Generate.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", cfg.Generate.Model)
	}
	if got := cfg.Generate.Delay(); got != 2*time.Second {
		t.Fatalf("generate delay = %v, want 2s", got)
	}
	if cfg.TTS.ModelID != "eleven_v3" {
		t.Fatalf("tts model = %q", cfg.TTS.ModelID)
	}
	if cfg.Audio.SNRDB != 15.0 || cfg.Audio.SampleRate != 16000 {
		t.Fatalf("audio defaults = %+v", cfg.Audio)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resqme.yaml")
	raw := `
generate:
  calls_per_disease: 2
  delay_ms: 50
tts:
  voice_id: abc123
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generate.CallsPerDisease != 2 {
		t.Fatalf("calls_per_disease = %d, want 2", cfg.Generate.CallsPerDisease)
	}
	if got := cfg.Generate.Delay(); got != 50*time.Millisecond {
		t.Fatalf("delay = %v, want 50ms", got)
	}
	if cfg.TTS.VoiceID != "abc123" {
		t.Fatalf("voice_id = %q", cfg.TTS.VoiceID)
	}
	// Untouched keys keep their defaults.
	if cfg.Generate.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q, want default", cfg.Generate.Model)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("sample_rate = %d, want default", cfg.Audio.SampleRate)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resqme.yaml")
	raw := `
generate:
  model: gpt-4o
audio:
  snr_db: 5
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RESQME_MODEL", "gpt-4o-mini")
	t.Setenv("RESQME_AUDIO_SNR_DB", "20")
	t.Setenv("RESQME_CALLS_PER_DISEASE", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generate.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want env value", cfg.Generate.Model)
	}
	if cfg.Audio.SNRDB != 20 {
		t.Fatalf("snr_db = %v, want 20", cfg.Audio.SNRDB)
	}
	if cfg.Generate.CallsPerDisease != 7 {
		t.Fatalf("calls_per_disease = %d, want 7", cfg.Generate.CallsPerDisease)
	}
}

func TestEnvIgnoresUnparsable(t *testing.T) {
	t.Setenv("RESQME_CALLS_PER_DISEASE", "lots")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generate.CallsPerDisease != 10 {
		t.Fatalf("calls_per_disease = %d, want default", cfg.Generate.CallsPerDisease)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
