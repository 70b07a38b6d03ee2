package classifier

import "math"

const (
	// frameSize is the number of 16-bit samples summarized per frame.
	frameSize = 512
	// windowFrames is the fixed analysis window. Shorter clips are padded
	// with silent frames, longer clips are truncated.
	windowFrames = 174
)

// frameFeatures summarizes one frame of little-endian 16-bit PCM.
type frameFeatures struct {
	energy    float64 // mean squared amplitude, normalized to [0,1]
	zeroCross float64 // zero-crossing rate in [0,1]
	peak      float64 // max absolute amplitude, normalized to [0,1]
}

// extract converts a raw PCM buffer into a fixed-length feature window.
// Buffers shorter than one sample yield ok=false.
func extract(pcm []byte) (window [windowFrames]frameFeatures, ok bool) {
	samples := decodePCM(pcm)
	if len(samples) == 0 {
		return window, false
	}

	frames := len(samples) / frameSize
	if len(samples)%frameSize != 0 {
		frames++
	}
	if frames > windowFrames {
		frames = windowFrames
	}

	for f := 0; f < frames; f++ {
		start := f * frameSize
		end := start + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		window[f] = summarize(samples[start:end])
	}
	return window, true
}

func decodePCM(pcm []byte) []float64 {
	n := len(pcm) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		raw := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		samples[i] = float64(raw) / 32768.0
	}
	return samples
}

func summarize(samples []float64) frameFeatures {
	if len(samples) == 0 {
		return frameFeatures{}
	}
	var sumSq, peak float64
	crossings := 0
	for i, s := range samples {
		sumSq += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
		if i > 0 && (samples[i-1] < 0) != (s < 0) {
			crossings++
		}
	}
	return frameFeatures{
		energy:    sumSq / float64(len(samples)),
		zeroCross: float64(crossings) / float64(len(samples)),
		peak:      peak,
	}
}
