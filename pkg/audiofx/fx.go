package audiofx

import (
	"errors"
	"math"
	"math/rand"
)

// Resample converts a clip to the target rate with linear interpolation.
// The input clip is not modified.
func Resample(c *Clip, outSR int) *Clip {
	if c.Rate == outSR || len(c.Samples) == 0 {
		return &Clip{Samples: append([]float32(nil), c.Samples...), Rate: outSR}
	}
	in := c.Samples
	ratio := float64(outSR) / float64(c.Rate)
	outN := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := 0; i < outN; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return &Clip{Samples: out, Rate: outSR}
}

// normalizeHeadroom keeps the peak just under full scale.
const normalizeHeadroom = 0.989 // about -0.1 dBFS

// Normalize peak-normalizes the clip, returning a new one.
// Silent input comes back unchanged.
func Normalize(c *Clip) *Clip {
	peak := 0.0
	for _, s := range c.Samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	out := make([]float32, len(c.Samples))
	if peak == 0 {
		copy(out, c.Samples)
		return &Clip{Samples: out, Rate: c.Rate}
	}
	gain := normalizeHeadroom / peak
	for i, s := range c.Samples {
		out[i] = float32(clamp(float64(s)*gain, -1.0, 1.0))
	}
	return &Clip{Samples: out, Rate: c.Rate}
}

// SignalPower returns the mean squared sample value.
func SignalPower(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(samples))
}

// AddWhiteNoise mixes Gaussian white noise into the clip so the result sits at
// the requested signal-to-noise ratio. Output samples are clamped to [-1, 1].
func AddWhiteNoise(c *Clip, snrDB float64, rng *rand.Rand) (*Clip, error) {
	if len(c.Samples) == 0 {
		return nil, errors.New("empty clip")
	}
	sigPower := SignalPower(c.Samples)
	if sigPower == 0 {
		return nil, errors.New("silent clip, SNR undefined")
	}
	noisePower := sigPower / math.Pow(10, snrDB/10)
	amp := math.Sqrt(noisePower)

	out := make([]float32, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = float32(clamp(float64(s)+amp*rng.NormFloat64(), -1.0, 1.0))
	}
	return &Clip{Samples: out, Rate: c.Rate}, nil
}
