package monologue

import (
	"context"
	"math/rand"
	"strings"
	"time"

	log "log/slog"

	"resqme/internal/config"
	"resqme/internal/llm"
	"resqme/internal/symptoms"
)

// Generator drives the batch loop: for each disease, sample symptoms, prompt
// the model, and append the row before moving on.
type Generator struct {
	table     *symptoms.Table
	cfg       config.GenerateConfig
	completer llm.Completer
	out       *Writer
	rng       *rand.Rand
}

func NewGenerator(table *symptoms.Table, cfg config.GenerateConfig, completer llm.Completer, out *Writer) *Generator {
	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		table:     table,
		cfg:       cfg,
		completer: completer,
		out:       out,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Run generates monologues for every disease in the table and returns the
// number of rows written. Skipped rows are logged, not fatal; only context
// cancellation or a broken output file aborts the batch.
func (g *Generator) Run(ctx context.Context) (int, error) {
	written := 0
	for _, disease := range g.table.Diseases(g.cfg.MaxDiseases) {
		log.Info("Generating", "disease", disease)

		present := g.table.SymptomsFor(disease)
		if len(present) == 0 {
			log.Warn("No symptoms recorded, skipping", "disease", disease)
			continue
		}

		for i := 0; i < g.cfg.CallsPerDisease; i++ {
			sampled := g.sample(present)
			if len(sampled) == 0 {
				continue
			}

			text, err := g.completeWithRetry(ctx, BuildPrompt(sampled))
			if err != nil {
				if ctx.Err() != nil {
					return written, ctx.Err()
				}
				log.Error("Giving up on row", "disease", disease, "err", err)
			} else {
				row := Row{
					Disease:       disease,
					SymptomsUsed:  sampled,
					GeneratedCall: strings.TrimSpace(text),
				}
				if err := g.out.Append(row); err != nil {
					return written, err
				}
				written++
				log.Debug("Appended row", "disease", disease, "symptoms", sampled)
			}

			if err := sleep(ctx, g.cfg.Delay()); err != nil {
				return written, err
			}
		}
	}

	log.Info("Batch complete", "rows", written, "out", g.out.Path())
	return written, nil
}

// sample picks up to SymptomsPerCall symptoms without replacement, clamped to
// however many the disease actually has.
func (g *Generator) sample(present []string) []string {
	k := g.cfg.SymptomsPerCall
	if k > len(present) {
		k = len(present)
	}
	if k <= 0 {
		return nil
	}
	idx := g.rng.Perm(len(present))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = present[j]
	}
	return out
}

func (g *Generator) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	delay := g.cfg.Delay()
	retries := g.cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		text, err := g.completer.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !llm.Retryable(err) {
			return "", err
		}
		log.Warn("Attempt failed", "attempt", attempt, "err", err)
		if attempt < retries {
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
			delay = time.Duration(float64(delay) * g.cfg.RetryBackoff)
		}
	}
	return "", lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
