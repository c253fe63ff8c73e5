package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Montage builds a channels × length matrix where channel c carries a sine
// at freqs[c%len(freqs)] plus a small seeded noise floor, the shape of a
// synthetic EEG recording.
func Montage(channels, length int, sampleRate float64, freqs ...float64) [][]float64 {
	out := make([][]float64, channels)
	for c := range out {
		f := freqs[c%len(freqs)]
		row := DeterministicSine(f, sampleRate, 1, length)
		noise := DeterministicNoise(int64(c+1), 0.05, length)
		for i := range row {
			row[i] += noise[i]
		}
		out[c] = row
	}
	return out
}

// Transpose converts channels × samples into samples × channels.
func Transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([][]float64, len(m[0]))
	for i := range out {
		out[i] = make([]float64, len(m))
		for c := range m {
			out[i][c] = m[c][i]
		}
	}
	return out
}
