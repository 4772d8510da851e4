package generator

import (
	"math"

	"github.com/openmorse/gocw/tone"
)

const pcmFullScale = 32767

// runWorker is the dequeue-and-generate loop: one goroutine per Generator,
// started by Start and stopped by Stop. It is grounded in
// doismellburning-samoyed/src/gen_tone.go's playback thread, generalized
// from a fixed 256-entry sine table to the floating-point slopeTable here.
func (g *Generator) runWorker() {
	defer g.wg.Done()

	t, ok := g.queue.DequeueBlocking(g.running.Load)
	if !ok {
		return
	}
	g.keyOn()

	for {
		if !g.running.Load() {
			return
		}

		if t.Forever {
			g.renderOneForeverChunk(t)
			next, ok := g.queue.Dequeue()
			if !ok {
				g.keyOff()
				return
			}
			t = next
			continue
		}

		g.renderFinite(t)
		g.notifyToneComplete()
		if g.queue.Len() == 0 {
			g.keyOff()
		}

		nt, ok := g.queue.DequeueBlocking(g.running.Load)
		if !ok {
			g.keyOff()
			return
		}
		g.keyOn()
		t = nt
	}
}

func (g *Generator) chunkSamples() int {
	n := g.sampleRate * defaultChunkDurationUs / 1_000_000
	if n < 1 {
		n = 1
	}
	return n
}

// renderFinite renders a tone of known duration in full, applying its
// rising and/or falling slope per SlopeMode.
func (g *Generator) renderFinite(t tone.Tone) {
	total := int(t.DurationUs) * g.sampleRate / 1_000_000
	if total <= 0 {
		return
	}
	g.trackState(t.FrequencyHz > 0)

	risingN, fallingN := 0, 0
	if t.SlopeMode == tone.SlopeRisingOnly || t.SlopeMode == tone.SlopeStandard {
		risingN = g.slope.nAmplitudes()
	}
	if t.SlopeMode == tone.SlopeFallingOnly || t.SlopeMode == tone.SlopeStandard {
		fallingN = g.slope.nAmplitudes()
	}
	fallingStart := total - fallingN

	if !g.backend.SupportsPCM() {
		if err := g.backend.WriteToneOnOff(t.FrequencyHz > 0, t.DurationUs); err != nil {
			g.logger.Error("write tone on/off", "err", err)
		}
		return
	}

	vol := float64(g.currentVolume()) / 100.0
	angularFreq := 2 * math.Pi * float64(t.FrequencyHz) / float64(g.sampleRate)
	chunk := g.chunkSamples()

	for rendered := 0; rendered < total; {
		n := chunk
		if rendered+n > total {
			n = total - rendered
		}
		buf := make([]int16, n)
		for i := 0; i < n; i++ {
			idx := rendered + i
			amp := vol
			if idx < risingN {
				amp *= g.slope.risingAmplitudeAt(idx)
			}
			if idx >= fallingStart {
				amp *= g.slope.fallingAmplitudeAt(idx - fallingStart)
			}
			var sample float64
			if t.FrequencyHz > 0 {
				sample = amp * math.Sin(angularFreq*float64(idx))
			}
			buf[i] = int16(sample * pcmFullScale)
		}
		if err := g.backend.WritePCM(buf); err != nil {
			g.logger.Error("write pcm", "err", err)
		}
		rendered += n
	}
}

// renderOneForeverChunk renders a single defaultChunkDurationUs slice of an
// indefinite tone, tracking a running sample index across calls so the
// carrier phase and the rising-edge slope (applied only once, at the very
// start of the run) stay continuous.
func (g *Generator) renderOneForeverChunk(t tone.Tone) {
	changed := !g.foreverActive || g.foreverFreq != t.FrequencyHz || g.foreverSlope != t.SlopeMode
	if changed {
		g.foreverActive = true
		g.foreverFreq = t.FrequencyHz
		g.foreverSlope = t.SlopeMode
		g.foreverIdx = 0
		g.trackState(t.FrequencyHz > 0)
	}

	risingN := 0
	if g.foreverSlope == tone.SlopeRisingOnly || g.foreverSlope == tone.SlopeStandard {
		risingN = g.slope.nAmplitudes()
	}

	n := g.chunkSamples()

	if !g.backend.SupportsPCM() {
		if err := g.backend.WriteToneOnOff(t.FrequencyHz > 0, int64(n)*1_000_000/int64(g.sampleRate)); err != nil {
			g.logger.Error("write tone on/off", "err", err)
		}
		g.foreverIdx += n
		return
	}

	vol := float64(g.currentVolume()) / 100.0
	angularFreq := 2 * math.Pi * float64(t.FrequencyHz) / float64(g.sampleRate)
	buf := make([]int16, n)
	for i := 0; i < n; i++ {
		idx := g.foreverIdx + i
		amp := vol
		if idx < risingN {
			amp *= g.slope.risingAmplitudeAt(idx)
		}
		var sample float64
		if t.FrequencyHz > 0 {
			sample = amp * math.Sin(angularFreq*float64(idx))
		}
		buf[i] = int16(sample * pcmFullScale)
	}
	if err := g.backend.WritePCM(buf); err != nil {
		g.logger.Error("write pcm", "err", err)
	}
	g.foreverIdx += n
}

func (g *Generator) notifyToneComplete() {
	if g.keyer != nil {
		g.keyer.NotifyToneComplete()
	}
}

// trackState invokes the registered value-tracking callback only on an
// on/off transition, filtering consecutive tones that share a carrier
// state (e.g. two dots in a row both skip the callback between them).
func (g *Generator) trackState(on bool) {
	g.stateMu.Lock()
	changed := !g.stateValid || g.stateOn != on
	g.stateValid = true
	g.stateOn = on
	cb := g.onOffCallback
	g.stateMu.Unlock()
	if changed && cb != nil {
		cb(on)
	}
}

func (g *Generator) keyOn() {
	if g.transmitter == nil || g.pttOn {
		return
	}
	if err := g.transmitter.Key(true); err != nil {
		g.logger.Error("key transmitter on", "err", err)
		return
	}
	g.pttOn = true
}

func (g *Generator) keyOff() {
	if g.transmitter == nil || !g.pttOn {
		return
	}
	if err := g.transmitter.Key(false); err != nil {
		g.logger.Error("key transmitter off", "err", err)
		return
	}
	g.pttOn = false
}

// RegisterValueTrackingCallback installs the callback invoked on every
// carrier on/off transition rendered by the worker.
func (g *Generator) RegisterValueTrackingCallback(cb func(on bool)) {
	g.stateMu.Lock()
	g.onOffCallback = cb
	g.stateMu.Unlock()
}

// RegisterLowLevelCallback wraps the tone queue's low-water-mark callback,
// invoked once per crossing from above level down to at-or-below it.
func (g *Generator) RegisterLowLevelCallback(level int, cb func()) {
	g.queue.SetLowWaterMark(level, func(any) { cb() }, nil)
}
