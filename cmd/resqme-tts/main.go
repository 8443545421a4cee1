package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"resqme/internal/cliutil"
	"resqme/internal/config"
	"resqme/internal/proxy"
	"resqme/internal/tts"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "YAML config file")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy address for API calls")
	logLevel := cli.StringP("log", "l", "info", "Log level")

	voiceID := cli.String("voice-id", "", "Fixed ElevenLabs voice id")
	randomVoice := cli.Bool("random-voice", false, "Sample a random voice per row")
	text := cli.String("text", "", "Text to synthesize (single/stream)")
	out := cli.StringP("out", "o", "", "Output file path (single/stream/mix)")
	csvPath := cli.String("csv", "", "Monologue CSV input path (batch)")
	outDir := cli.String("outdir", "", "Output directory (batch)")
	saveCSV := cli.String("save-csv", "", "Persist the voice registry to this CSV (list)")
	voicesCSV := cli.String("voices-csv", "", "Use a cached voice registry CSV for the random pool (batch)")
	modelID := cli.String("model-id", "", "ElevenLabs model id")
	outputFormat := cli.String("output-format", "", "Audio output format preset")
	stability := cli.Float64("stability", 0.30, "Voice setting: stability (0-1)")
	similarity := cli.Float64("similarity", 0.75, "Voice setting: similarity boost (0-1)")
	style := cli.Float64("style", 0.0, "Voice setting: style (0-1)")
	speakerBoost := cli.Bool("speaker-boost", true, "Voice setting: speaker boost")
	textCol := cli.String("text-col", "", "Text column name (batch, inferred when empty)")
	idCol := cli.String("id-col", "id", "Row identifier column name (batch)")
	delay := cli.Duration("delay", 0, "Delay between batch rows")
	seed := cli.Int64("seed", -1, "Random seed for voice sampling (-1 = time)")
	name := cli.String("name", "", "New voice name (add-voice)")
	description := cli.String("description", "", "New voice description (add-voice)")
	samples := cli.StringSlice("sample", nil, "Sample audio file for the new voice, repeatable (add-voice)")
	speech := cli.String("speech", "", "Synthesized speech file to mix (mix)")
	sfx := cli.String("sfx", "", "Sound-effect track to mix in (mix)")
	sfxGain := cli.Float64("sfx-gain", -12.0, "Sound-effect gain in dB (mix)")
	cli.Parse()

	cliutil.SetupLogging(*logLevel)
	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		cliutil.Fatal("Failed to load config", "err", err)
	}
	tc := &cfg.TTS
	if cli.CommandLine.Changed("voice-id") {
		tc.VoiceID = *voiceID
	}
	if cli.CommandLine.Changed("model-id") {
		tc.ModelID = *modelID
	}
	if cli.CommandLine.Changed("output-format") {
		tc.OutputFormat = *outputFormat
	}
	if cli.CommandLine.Changed("outdir") {
		tc.OutDir = *outDir
	}
	if cli.CommandLine.Changed("delay") {
		tc.DelayMS = int((*delay).Milliseconds())
	}
	if cli.CommandLine.Changed("stability") {
		tc.Stability = *stability
	}
	if cli.CommandLine.Changed("similarity") {
		tc.SimilarityBoost = *similarity
	}
	if cli.CommandLine.Changed("style") {
		tc.Style = *style
	}
	if cli.CommandLine.Changed("speaker-boost") {
		tc.SpeakerBoost = *speakerBoost
	}

	cmd := cli.Arg(0)
	if cmd == "" {
		cmd = "list"
	}

	// Mixing is local file work, no API key needed.
	if cmd == "mix" {
		if *speech == "" || *sfx == "" || *out == "" {
			cliutil.Fatal("mix requires --speech, --sfx and --out")
		}
		if err := tts.MixWithEffect(*speech, *sfx, *out, *sfxGain); err != nil {
			cliutil.Fatal("Mix failed", "err", err)
		}
		log.Info("Mixed", "out", *out)
		return
	}

	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		cliutil.Fatal("ELEVENLABS_API_KEY not set")
	}

	httpClient, err := proxy.HTTPClient(*proxyAddr)
	if err != nil {
		cliutil.Fatal("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
	}

	client := tts.NewClient(apiKey, tts.WithHTTPClient(httpClient))
	ctx := context.Background()

	synth := tts.SynthesisOptions{
		ModelID:         tc.ModelID,
		OutputFormat:    tc.OutputFormat,
		Stability:       tc.Stability,
		SimilarityBoost: tc.SimilarityBoost,
		Style:           tc.Style,
		SpeakerBoost:    tc.SpeakerBoost,
	}

	switch cmd {
	case "list":
		voices, err := client.ListVoices(ctx)
		if err != nil {
			cliutil.Fatal("Failed to list voices", "err", err)
		}
		for _, v := range voices {
			fmt.Printf("%s\t%s\t%s\n", v.ID, v.Name, v.Category)
		}
		if *saveCSV != "" {
			if err := tts.WriteRegistry(*saveCSV, voices); err != nil {
				cliutil.Fatal("Failed to save registry", "err", err)
			}
			log.Info("Saved registry", "path", *saveCSV, "voices", len(voices))
		}

	case "single":
		if *text == "" || *out == "" {
			cliutil.Fatal("single requires --text and --out")
		}
		vid := resolveVoice(ctx, client, tc.VoiceID)
		if err := client.SynthesizeToFile(ctx, vid, *text, *out, synth); err != nil {
			cliutil.Fatal("Synthesis failed", "err", err)
		}
		log.Info("Saved", "out", *out, "voice", vid)

	case "stream":
		if *text == "" || *out == "" {
			cliutil.Fatal("stream requires --text and --out")
		}
		vid := resolveVoice(ctx, client, tc.VoiceID)
		if err := client.SynthesizeStream(ctx, vid, *text, *out, synth); err != nil {
			cliutil.Fatal("Stream synthesis failed", "err", err)
		}
		log.Info("Saved", "out", *out, "voice", vid)

	case "batch":
		if *csvPath == "" {
			cliutil.Fatal("batch requires --csv")
		}
		opt := tts.BatchOptions{
			TextColumn:   *textCol,
			IDColumn:     *idCol,
			RandomVoice:  *randomVoice,
			OutDir:       tc.OutDir,
			Delay:        tc.Delay(),
			MaxRetries:   tc.MaxRetries,
			RetryBackoff: tc.RetryBackoff,
			Synthesis:    synth,
		}
		if *randomVoice && *voicesCSV != "" {
			pool, err := tts.ReadRegistry(*voicesCSV)
			if err != nil {
				cliutil.Fatal("Failed to read voice registry", "err", err)
			}
			opt.Pool = pool
		}
		if !*randomVoice {
			opt.VoiceID = resolveVoice(ctx, client, tc.VoiceID)
		}
		results, err := client.SynthesizeCSV(ctx, *csvPath, opt, newRand(*seed))
		if err != nil {
			cliutil.Fatal("Batch aborted", "err", err)
		}
		ok, failed := 0, 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			} else {
				ok++
			}
		}
		log.Info("Batch complete", "ok", ok, "failed", failed, "outdir", tc.OutDir)

	case "add-voice":
		if *name == "" || len(*samples) == 0 {
			cliutil.Fatal("add-voice requires --name and at least one --sample")
		}
		vid, err := client.AddVoice(ctx, *name, *description, *samples)
		if err != nil {
			cliutil.Fatal("Failed to add voice", "err", err)
		}
		log.Info("Created voice", "voice_id", vid)

	default:
		cliutil.Fatal("Unknown command", "cmd", cmd)
	}
}

// resolveVoice falls back to a deterministic pick from the account catalog
// when no voice id was configured.
func resolveVoice(ctx context.Context, client *tts.Client, requested string) string {
	if requested != "" {
		return requested
	}
	voices, err := client.ListVoices(ctx)
	if err != nil {
		cliutil.Fatal("Failed to list voices", "err", err)
	}
	vid, err := tts.PickVoice(voices)
	if err != nil {
		cliutil.Fatal("No voice available", "err", err)
	}
	log.Info("Using account voice", "voice_id", vid)
	return vid
}

func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
