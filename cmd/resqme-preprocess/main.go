package main

import (
	"os"
	"path/filepath"
	"strings"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"resqme/internal/cliutil"
	"resqme/internal/config"
	"resqme/pkg/audiofx"
)

func main() {
	configPath := cli.StringP("config", "c", "", "YAML config file")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	inDir := cli.String("in-dir", "", "Directory of TTS outputs")
	outDir := cli.String("out-dir", "", "Directory for model-ready WAVs")
	rate := cli.Int("rate", 0, "Target sample rate")
	cli.Parse()

	cliutil.SetupLogging(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		cliutil.Fatal("Failed to load config", "err", err)
	}
	ac := &cfg.Audio
	if cli.CommandLine.Changed("in-dir") {
		ac.InDir = *inDir
	}
	if cli.CommandLine.Changed("out-dir") {
		ac.WavDir = *outDir
	}
	if cli.CommandLine.Changed("rate") {
		ac.SampleRate = *rate
	}

	if _, err := os.Stat(ac.InDir); err != nil {
		cliutil.Fatal("Input directory not found", "dir", ac.InDir, "err", err)
	}

	files := globAudio(ac.InDir)
	if len(files) == 0 {
		log.Warn("No audio files found", "dir", ac.InDir)
		return
	}

	ok, failed := 0, 0
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(ac.WavDir, name+".wav")

		clip, err := audiofx.Decode(path)
		if err != nil {
			log.Error("Decode failed, skipping", "file", path, "err", err)
			failed++
			continue
		}
		clip = audiofx.Normalize(audiofx.Resample(clip, ac.SampleRate))
		if err := audiofx.WriteWAV(out, clip); err != nil {
			log.Error("Write failed, skipping", "file", out, "err", err)
			failed++
			continue
		}
		log.Info("WAV saved", "out", out, "rate", ac.SampleRate)
		ok++
	}

	log.Info("Batch complete", "ok", ok, "failed", failed, "outdir", ac.WavDir)
}

func globAudio(dir string) []string {
	var files []string
	for _, pat := range []string{"*.mp3", "*.wav"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pat))
		files = append(files, matches...)
	}
	return files
}
