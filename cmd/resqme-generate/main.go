package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"resqme/internal/cliutil"
	"resqme/internal/config"
	"resqme/internal/llm"
	"resqme/internal/monologue"
	"resqme/internal/proxy"
	"resqme/internal/symptoms"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "YAML config file")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy address for API calls")
	logLevel := cli.StringP("log", "l", "info", "Log level")

	symptomCSV := cli.String("symptom-csv", "", "Path to the symptom matrix CSV")
	outCSV := cli.String("out-csv", "", "Path to the output CSV")
	calls := cli.Int("calls-per-disease", 0, "Monologues to generate per disease")
	perCall := cli.Int("symptoms-per-call", 0, "Symptoms sampled per monologue")
	maxDiseases := cli.Int("max-diseases", 0, "Cap on diseases (0 = all)")
	seed := cli.Int64("seed", 42, "Random seed (-1 disables)")
	model := cli.String("model", "", "Chat model id")
	temperature := cli.Float64("temperature", 1.0, "Sampling temperature")
	maxTokens := cli.Int("max-tokens", 0, "Completion token budget")
	delay := cli.Duration("delay", 0, "Delay between calls")
	maxRetries := cli.Int("max-retries", 0, "Retry attempts per call")
	backoff := cli.Float64("retry-backoff", 0, "Backoff multiplier between retries")
	cli.Parse()

	cliutil.SetupLogging(*logLevel)

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		cliutil.Fatal("Failed to load config", "err", err)
	}
	gen := &cfg.Generate
	if cli.CommandLine.Changed("symptom-csv") {
		gen.SymptomCSV = *symptomCSV
	}
	if cli.CommandLine.Changed("out-csv") {
		gen.OutCSV = *outCSV
	}
	if cli.CommandLine.Changed("calls-per-disease") {
		gen.CallsPerDisease = *calls
	}
	if cli.CommandLine.Changed("symptoms-per-call") {
		gen.SymptomsPerCall = *perCall
	}
	if cli.CommandLine.Changed("max-diseases") {
		gen.MaxDiseases = *maxDiseases
	}
	if cli.CommandLine.Changed("seed") {
		gen.Seed = *seed
	}
	if cli.CommandLine.Changed("model") {
		gen.Model = *model
	}
	if cli.CommandLine.Changed("temperature") {
		gen.Temperature = *temperature
	}
	if cli.CommandLine.Changed("max-tokens") {
		gen.MaxTokens = *maxTokens
	}
	if cli.CommandLine.Changed("delay") {
		gen.DelayMS = int((*delay).Milliseconds())
	}
	if cli.CommandLine.Changed("max-retries") {
		gen.MaxRetries = *maxRetries
	}
	if cli.CommandLine.Changed("retry-backoff") {
		gen.RetryBackoff = *backoff
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		cliutil.Fatal("OPENAI_API_KEY not set")
	}

	log.Debug("Loaded API Key")

	httpClient, err := proxy.HTTPClient(*proxyAddr)
	if err != nil {
		cliutil.Fatal("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)

	table, err := symptoms.Load(gen.SymptomCSV)
	if err != nil {
		cliutil.Fatal("Failed to load symptom table", "err", err)
	}

	log.Debug("Loaded symptom table", "diseases", len(table.Diseases(0)))

	writer, err := monologue.OpenWriter(gen.OutCSV)
	if err != nil {
		cliutil.Fatal("Failed to open output csv", "err", err)
	}
	defer writer.Close()

	log.Info("Boot up - successful")

	completer := llm.NewOpenAI(client, gen.Model, gen.Temperature, gen.MaxTokens)
	g := monologue.NewGenerator(table, *gen, completer, writer)

	rows, err := g.Run(context.Background())
	if err != nil {
		cliutil.Fatal("Generation aborted", "rows", rows, "err", err)
	}

	log.Info("Done", "rows", rows, "out", gen.OutCSV)
}
