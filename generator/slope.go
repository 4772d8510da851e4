package generator

import (
	"math"

	"github.com/openmorse/gocw/tone"
)

// slopeTable holds precomputed rising-edge envelope amplitudes in [0,1];
// the falling edge is the same table read back to front. Recomputed
// whenever the sample rate or shape/duration changes (rare; done at
// parameter-sync time, not per-tone), mirroring the teacher's
// once-at-init SineTable precomputation in morse.go.
type slopeTable struct {
	shape      tone.Shape
	durationUs int
	sampleRate int
	amplitudes []float64 // length n_amplitudes
}

func newSlopeTable(shape tone.Shape, durationUs, sampleRate int) slopeTable {
	n := durationUs * sampleRate / 1_000_000
	if n < 1 {
		n = 1
	}
	amps := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		if n == 1 {
			x = 1
		}
		switch shape {
		case tone.ShapeLinear:
			amps[i] = x
		case tone.ShapeSine:
			amps[i] = math.Sin(x * math.Pi / 2)
		case tone.ShapeRectangular:
			amps[i] = 1
		default: // ShapeRaisedCosine
			amps[i] = (1 - math.Cos(x*math.Pi)) / 2
		}
	}
	return slopeTable{shape: shape, durationUs: durationUs, sampleRate: sampleRate, amplitudes: amps}
}

func (s slopeTable) nAmplitudes() int { return len(s.amplitudes) }

// risingAmplitudeAt returns the envelope multiplier for the i-th sample of
// a rising edge (i == 0 is the very first sample, silent for every shape
// except ShapeRectangular).
func (s slopeTable) risingAmplitudeAt(i int) float64 {
	if i < 0 {
		return 0
	}
	if i >= len(s.amplitudes) {
		return 1
	}
	return s.amplitudes[i]
}

// fallingAmplitudeAt mirrors risingAmplitudeAt for a falling edge, i == 0
// being the first sample of the fade-out.
func (s slopeTable) fallingAmplitudeAt(i int) float64 {
	if i < 0 {
		return 1
	}
	if i >= len(s.amplitudes) {
		return 0
	}
	return s.amplitudes[len(s.amplitudes)-1-i]
}
