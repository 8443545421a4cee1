package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type GenerateConfig struct {
	SymptomCSV      string  `yaml:"symptom_csv"`
	OutCSV          string  `yaml:"out_csv"`
	CallsPerDisease int     `yaml:"calls_per_disease"`
	SymptomsPerCall int     `yaml:"symptoms_per_call"`
	MaxDiseases     int     `yaml:"max_diseases"`
	Seed            int64   `yaml:"seed"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	DelayMS         int     `yaml:"delay_ms"`
	MaxRetries      int     `yaml:"max_retries"`
	RetryBackoff    float64 `yaml:"retry_backoff"`
}

// Delay is the inter-call pause.
func (g GenerateConfig) Delay() time.Duration {
	return time.Duration(g.DelayMS) * time.Millisecond
}

type TTSConfig struct {
	ModelID         string  `yaml:"model_id"`
	OutputFormat    string  `yaml:"output_format"`
	VoiceID         string  `yaml:"voice_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	SpeakerBoost    bool    `yaml:"speaker_boost"`
	OutDir          string  `yaml:"out_dir"`
	DelayMS         int     `yaml:"delay_ms"`
	MaxRetries      int     `yaml:"max_retries"`
	RetryBackoff    float64 `yaml:"retry_backoff"`
}

// Delay is the inter-row pause.
func (t TTSConfig) Delay() time.Duration {
	return time.Duration(t.DelayMS) * time.Millisecond
}

type AudioConfig struct {
	InDir      string  `yaml:"in_dir"`
	NoisyDir   string  `yaml:"noisy_dir"`
	WavDir     string  `yaml:"wav_dir"`
	SNRDB      float64 `yaml:"snr_db"`
	SampleRate int     `yaml:"sample_rate"`
}

type Config struct {
	Generate GenerateConfig `yaml:"generate"`
	TTS      TTSConfig      `yaml:"tts"`
	Audio    AudioConfig    `yaml:"audio"`
}

func Default() Config {
	return Config{
		Generate: GenerateConfig{
			SymptomCSV:      "data/raw/disease_symptom_matrix.csv",
			OutCSV:          "outputs/monologues/generated_gpt_calls.csv",
			CallsPerDisease: 10,
			SymptomsPerCall: 3,
			MaxDiseases:     0,
			Seed:            42,
			Model:           "gpt-3.5-turbo",
			Temperature:     1.0,
			MaxTokens:       500,
			DelayMS:         2000,
			MaxRetries:      3,
			RetryBackoff:    2.0,
		},
		TTS: TTSConfig{
			ModelID:         "eleven_v3",
			OutputFormat:    "mp3_44100_128",
			Stability:       0.30,
			SimilarityBoost: 0.75,
			Style:           0.0,
			SpeakerBoost:    true,
			OutDir:          "outputs/audio",
			DelayMS:         600,
			MaxRetries:      3,
			RetryBackoff:    2.0,
		},
		Audio: AudioConfig{
			InDir:      "outputs/audio",
			NoisyDir:   "outputs/audio_noisy",
			WavDir:     "outputs/audio_wav",
			SNRDB:      15.0,
			SampleRate: 16000,
		},
	}
}

// Load returns defaults overlaid with the YAML file (when path is non-empty)
// and then with RESQME_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("RESQME_SYMPTOM_CSV", &cfg.Generate.SymptomCSV)
	envString("RESQME_OUT_CSV", &cfg.Generate.OutCSV)
	envString("RESQME_MODEL", &cfg.Generate.Model)
	envInt("RESQME_CALLS_PER_DISEASE", &cfg.Generate.CallsPerDisease)
	envInt("RESQME_SYMPTOMS_PER_CALL", &cfg.Generate.SymptomsPerCall)

	envString("RESQME_TTS_VOICE_ID", &cfg.TTS.VoiceID)
	envString("RESQME_TTS_MODEL_ID", &cfg.TTS.ModelID)
	envString("RESQME_TTS_OUT_DIR", &cfg.TTS.OutDir)

	envString("RESQME_AUDIO_IN_DIR", &cfg.Audio.InDir)
	envString("RESQME_AUDIO_NOISY_DIR", &cfg.Audio.NoisyDir)
	envString("RESQME_AUDIO_WAV_DIR", &cfg.Audio.WavDir)
	envFloat("RESQME_AUDIO_SNR_DB", &cfg.Audio.SNRDB)
	envInt("RESQME_AUDIO_SAMPLE_RATE", &cfg.Audio.SampleRate)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
