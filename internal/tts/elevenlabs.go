package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "log/slog"
)

const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// Client talks to the ElevenLabs REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether a synthesis error is transient.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return err != nil
}

// Voice is one entry of the provider's voice catalog.
type Voice struct {
	ID       string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ListVoices fetches the account's voice registry.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var body struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return body.Voices, nil
}

// PickVoice deterministically picks a voice id: first by name, ties by id.
func PickVoice(voices []Voice) (string, error) {
	if len(voices) == 0 {
		return "", errors.New("no voices available")
	}
	sorted := append([]Voice(nil), voices...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0].ID, nil
}

// SynthesisOptions mirror the provider's voice_settings plus model and format.
type SynthesisOptions struct {
	ModelID         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
	OutputFormat  string        `json:"output_format,omitempty"`
}

// Synthesize converts text to speech with the given voice and returns the raw
// audio bytes. Bracketed audio tags force a v3 model, since older models read
// them out loud.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string, opt SynthesisOptions) ([]byte, error) {
	if voiceID == "" {
		return nil, errors.New("voice id is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}

	modelID := opt.ModelID
	if hasAudioTags(text) && !strings.Contains(modelID, "v3") {
		log.Info("Bracket audio tags detected, switching model", "model", "eleven_v3")
		modelID = "eleven_v3"
	}

	payload := synthesizeRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       opt.Stability,
			SimilarityBoost: opt.SimilarityBoost,
			Style:           opt.Style,
			UseSpeakerBoost: opt.SpeakerBoost,
		},
		OutputFormat: opt.OutputFormat,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

// SynthesizeToFile persists the synthesized audio, creating parent dirs.
func (c *Client) SynthesizeToFile(ctx context.Context, voiceID, text, path string, opt SynthesisOptions) error {
	audio, err := c.Synthesize(ctx, voiceID, text, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, audio, 0o644)
}

// AddVoice registers a new voice from sample audio files and returns its id.
func (c *Client) AddVoice(ctx context.Context, name, description string, samplePaths []string) (string, error) {
	if name == "" {
		return "", errors.New("voice name is required")
	}
	if len(samplePaths) == 0 {
		return "", errors.New("at least one sample file is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	if description != "" {
		if err := mw.WriteField("description", description); err != nil {
			return "", err
		}
	}
	for _, p := range samplePaths {
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("open sample %s: %w", p, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return "", fmt.Errorf("attach sample %s: %w", p, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voices/add", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("add voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}

	var body struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode add voice response: %w", err)
	}
	if body.VoiceID == "" {
		return "", errors.New("empty voice_id in response")
	}
	return body.VoiceID, nil
}

func hasAudioTags(text string) bool {
	open := strings.IndexByte(text, '[')
	return open >= 0 && strings.IndexByte(text[open:], ']') > 0
}

func readAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
