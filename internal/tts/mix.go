package tts

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	bmp3 "github.com/faiface/beep/mp3"
	bwav "github.com/faiface/beep/wav"
)

// MixWithEffect overlays a sound-effect track on a synthesized line. The
// effect is resampled to the speech rate, attenuated by sfxGainDB, and looped
// or truncated to exactly the speech length. Output is a new WAV file.
func MixWithEffect(speechPath, sfxPath, outPath string, sfxGainDB float64) error {
	speech, speechFormat, err := openStream(speechPath)
	if err != nil {
		return fmt.Errorf("open speech: %w", err)
	}
	defer speech.Close()

	sfx, sfxFormat, err := openStream(sfxPath)
	if err != nil {
		return fmt.Errorf("open sfx: %w", err)
	}
	defer sfx.Close()

	mixed := overlay(speech, speech.Len(), sfx, sfxFormat.SampleRate, speechFormat.SampleRate, sfxGainDB)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := bwav.Encode(out, mixed, speechFormat); err != nil {
		return fmt.Errorf("encode mix: %w", err)
	}
	return nil
}

// overlay builds the mixed streamer: an endless loop of the effect, resampled
// and attenuated, cut to n samples and summed with the speech.
func overlay(speech beep.Streamer, n int, sfx beep.StreamSeeker, sfxRate, speechRate beep.SampleRate, gainDB float64) beep.Streamer {
	var bed beep.Streamer = beep.Loop(-1, sfx)
	if sfxRate != speechRate {
		bed = beep.Resample(4, sfxRate, speechRate, bed)
	}
	bed = &effects.Gain{Streamer: bed, Gain: math.Pow(10, gainDB/20) - 1}
	bed = beep.Take(n, bed)
	return beep.Mix(speech, bed)
}

func openStream(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return bmp3.Decode(f)
	case ".wav":
		return bwav.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported mix input: %s", path)
	}
}
