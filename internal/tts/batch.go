package tts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "log/slog"
)

// textColumnCandidates are tried in order when no text column is named.
var textColumnCandidates = []string{"text", "monologue", "prompt", "content", "generated_call"}

// BatchOptions controls per-row synthesis over a monologue table.
type BatchOptions struct {
	TextColumn   string
	IDColumn     string
	VoiceID      string  // fixed voice for all rows
	RandomVoice  bool    // uniform-random voice per row
	Pool         []Voice // voice pool for RandomVoice; fetched live when empty
	OutDir       string
	Delay        time.Duration
	MaxRetries   int
	RetryBackoff float64
	Synthesis    SynthesisOptions
}

// BatchResult records the outcome for one row.
type BatchResult struct {
	ID      string
	VoiceID string
	Path    string
	Err     error
}

// SynthesizeCSV reads the generated-monologue table and writes one audio file
// per row. Transient per-row failures are retried with backoff and then
// skipped; the batch keeps going.
func (c *Client) SynthesizeCSV(ctx context.Context, csvPath string, opt BatchOptions, rng *rand.Rand) ([]BatchResult, error) {
	if opt.VoiceID == "" && !opt.RandomVoice {
		return nil, errors.New("either a fixed voice id or random voice selection is required")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open input csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input csv %s is empty", csvPath)
	}
	if len(records) == 1 {
		// Header only. Nothing to synthesize, but not an error.
		log.Warn("Input csv has no data rows", "path", csvPath)
		return nil, nil
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	textIdx, err := findTextColumn(header, opt.TextColumn)
	if err != nil {
		return nil, err
	}
	idIdx := findColumn(header, orDefault(opt.IDColumn, "id"))

	pool := opt.Pool
	if opt.RandomVoice && len(pool) == 0 {
		pool, err = c.ListVoices(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, errors.New("no voices available to sample from")
		}
	}

	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var results []BatchResult
	for i, row := range records[1:] {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		id := fmt.Sprintf("utt_%04d", i)
		if idIdx >= 0 && idIdx < len(row) && strings.TrimSpace(row[idIdx]) != "" {
			id = strings.TrimSpace(row[idIdx])
		}
		if textIdx >= len(row) {
			log.Warn("Row shorter than header, skipping", "id", id)
			continue
		}
		text := strings.TrimSpace(row[textIdx])
		if text == "" {
			log.Warn("Empty text, skipping", "id", id)
			continue
		}

		voiceID := opt.VoiceID
		if opt.RandomVoice {
			voiceID = pool[rng.Intn(len(pool))].ID
		}

		outPath := filepath.Join(opt.OutDir, id+".mp3")
		err := c.synthesizeWithRetry(ctx, voiceID, text, outPath, opt)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			log.Error("Row failed", "id", id, "err", err)
			results = append(results, BatchResult{ID: id, VoiceID: voiceID, Err: err})
		} else {
			log.Info("Synthesized", "id", id, "voice", voiceID, "path", outPath)
			results = append(results, BatchResult{ID: id, VoiceID: voiceID, Path: outPath})
		}

		if err := sleepCtx(ctx, opt.Delay); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (c *Client) synthesizeWithRetry(ctx context.Context, voiceID, text, outPath string, opt BatchOptions) error {
	retries := opt.MaxRetries
	if retries < 1 {
		retries = 1
	}
	delay := opt.Delay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		err := c.SynthesizeToFile(ctx, voiceID, text, outPath, opt.Synthesis)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) {
			return err
		}
		log.Warn("Synthesis attempt failed", "attempt", attempt, "err", err)
		if attempt < retries {
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			if opt.RetryBackoff > 0 {
				delay = time.Duration(float64(delay) * opt.RetryBackoff)
			}
		}
	}
	return lastErr
}

func findTextColumn(header []string, requested string) (int, error) {
	if requested != "" {
		if idx := findColumn(header, requested); idx >= 0 {
			return idx, nil
		}
		return -1, fmt.Errorf("text column %q not found (have: %s)", requested, strings.Join(header, ", "))
	}
	for _, cand := range textColumnCandidates {
		if idx := findColumn(header, cand); idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("could not infer text column (have: %s)", strings.Join(header, ", "))
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
