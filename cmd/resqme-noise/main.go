package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"resqme/internal/cliutil"
	"resqme/internal/config"
	"resqme/pkg/audiofx"
)

func main() {
	configPath := cli.StringP("config", "c", "", "YAML config file")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	inDir := cli.String("in-dir", "", "Directory of audio files to degrade")
	outDir := cli.String("out-dir", "", "Directory for noisy outputs")
	snr := cli.Float64("snr", 0, "Target signal-to-noise ratio in dB")
	seed := cli.Int64("seed", -1, "Noise seed (-1 = time)")
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
		ac.NoisyDir = *outDir
	}
	if cli.CommandLine.Changed("snr") {
		ac.SNRDB = *snr
	}

	if _, err := os.Stat(ac.InDir); err != nil {
		cliutil.Fatal("Input directory not found", "dir", ac.InDir, "err", err)
	}

	files := globAudio(ac.InDir)
	if len(files) == 0 {
		log.Warn("No audio files found", "dir", ac.InDir)
		return
	}

	s := *seed
	if s < 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	ok, failed := 0, 0
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(ac.NoisyDir, name+"_noisy.wav")

		clip, err := audiofx.Decode(path)
		if err != nil {
			log.Error("Decode failed, skipping", "file", path, "err", err)
			failed++
			continue
		}
		noisy, err := audiofx.AddWhiteNoise(clip, ac.SNRDB, rng)
		if err != nil {
			log.Error("Noise failed, skipping", "file", path, "err", err)
			failed++
			continue
		}
		if err := audiofx.WriteWAV(out, noisy); err != nil {
			log.Error("Write failed, skipping", "file", out, "err", err)
			failed++
			continue
		}
		log.Info("Noisy saved", "out", out, "snr_db", ac.SNRDB)
		ok++
	}

	log.Info("Batch complete", "ok", ok, "failed", failed, "outdir", ac.NoisyDir)
}

func globAudio(dir string) []string {
	var files []string
	for _, pat := range []string{"*.wav", "*.mp3"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pat))
		files = append(files, matches...)
	}
	return files
}
