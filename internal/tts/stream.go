package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	log "log/slog"

	ws "github.com/gorilla/websocket"
)

type streamFrame struct {
	Text                 string         `json:"text"`
	VoiceSettings        *voiceSettings `json:"voice_settings,omitempty"`
	XIAPIKey             string         `json:"xi_api_key,omitempty"`
	TryTriggerGeneration bool           `json:"try_trigger_generation,omitempty"`
}

type streamResponse struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
}

// SynthesizeStream synthesizes over the websocket stream-input endpoint and
// persists the concatenated audio chunks. Useful for long monologues where
// the REST endpoint times out.
func (c *Client) SynthesizeStream(ctx context.Context, voiceID, text, outPath string, opt SynthesisOptions) error {
	if voiceID == "" {
		return errors.New("voice id is required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("text is required")
	}

	modelID := opt.ModelID
	if hasAudioTags(text) && !strings.Contains(modelID, "v3") {
		modelID = "eleven_v3"
	}

	wsURL, err := c.streamURL(voiceID, modelID, opt.OutputFormat)
	if err != nil {
		return err
	}
	log.Debug("Dialing stream", "url", wsURL)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	frames := []streamFrame{
		{
			Text: " ",
			VoiceSettings: &voiceSettings{
				Stability:       opt.Stability,
				SimilarityBoost: opt.SimilarityBoost,
				Style:           opt.Style,
				UseSpeakerBoost: opt.SpeakerBoost,
			},
			XIAPIKey: c.apiKey,
		},
		{Text: text + " ", TryTriggerGeneration: true},
		{Text: ""}, // end of input
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			return fmt.Errorf("write stream frame: %w", err)
		}
	}

	var audio []byte
	for {
		var resp streamResponse
		if err := conn.ReadJSON(&resp); err != nil {
			if wsIsClosed(err) {
				break
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if resp.Error != "" {
			return fmt.Errorf("stream error: %s", resp.Error)
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return fmt.Errorf("decode audio chunk: %w", err)
			}
			audio = append(audio, chunk...)
		}
		if resp.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return errors.New("stream produced no audio")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, audio, 0o644)
}

func (c *Client) streamURL(voiceID, modelID, outputFormat string) (string, error) {
	u, err := url.Parse(c.baseURL + "/text-to-speech/" + voiceID + "/stream-input")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	if modelID != "" {
		q.Set("model_id", modelID)
	}
	if outputFormat != "" {
		q.Set("output_format", outputFormat)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func wsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
