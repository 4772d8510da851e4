// Package generator implements the real-time CW tone synthesizer: it
// dequeues tones from a tonequeue.Queue, renders PCM sine (or an on/off
// carrier, for simple backends) with slope-shaped edges, and writes the
// result to a Backend. It is grounded in
// doismellburning-samoyed/src/gen_tone.go and src/morse.go's phase-
// accumulator tone synthesis, translated from their fixed-point 256-entry
// table to a floating-point accumulator.
package generator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/openmorse/gocw/tone"
	"github.com/openmorse/gocw/tonequeue"
)

// Keyer is the back-reference a Key attaches to a Generator: the
// dequeue-and-generate worker calls NotifyToneComplete once a non-forever
// tone finishes rendering, so an iambic keyer's state machine can advance.
type Keyer interface {
	NotifyToneComplete()
}

// Transmitter is an optional PTT hook (see SPEC_FULL.md §4.4): it is keyed
// on when the tone queue transitions empty -> non-empty and keyed off
// once it drains back to empty.
type Transmitter interface {
	Key(on bool) error
}

// Mark selects which of the two mark durations (Dot or Dash) to enqueue.
type Mark int

const (
	Dot Mark = iota
	Dash
)

const defaultChunkDurationUs = 20_000 // 20ms PCM render chunks.

// Generator owns a sound Backend, a bounded tone queue, the five tunable
// CW parameters, and the dequeue-and-render worker goroutine.
type Generator struct {
	backend    Backend
	sampleRate int
	queue      *tonequeue.Queue

	logger *log.Logger

	paramMu          sync.Mutex
	speedWPM         int
	frequencyHz      int
	volumePct        int
	gapUnits         int
	weightingPct     int
	parametersInSync bool
	tm               timing
	slopeShape       tone.Shape
	slopeDurationUs  int
	slope            slopeTable

	stateMu       sync.Mutex
	stateValid    bool
	stateOn       bool
	onOffCallback func(on bool)

	keyer       Keyer
	transmitter Transmitter
	pttOn       bool // only touched by the worker goroutine.

	running atomic.Bool
	wg      sync.WaitGroup

	// Forever-tone render state: only touched by the worker goroutine.
	foreverActive bool
	foreverFreq   int
	foreverSlope  tone.SlopeMode
	foreverIdx    int
}

// New opens backend at a preferred sample rate and constructs a Generator
// with default parameters (speed 12 WPM, frequency 800 Hz, volume 70%,
// gap 0, weighting 50%) and a tone queue of the given capacity.
func New(backend Backend, queueCapacity int) (*Generator, error) {
	sampleRate, err := backend.Open(tone.PreferredSampleRatesDescending[0])
	if err != nil {
		return nil, fmt.Errorf("generator: open backend: %w", err)
	}

	g := &Generator{
		backend:         backend,
		sampleRate:      sampleRate,
		queue:           tonequeue.New(queueCapacity),
		logger:          log.Default(),
		speedWPM:        tone.InitSpeedWPM,
		frequencyHz:     tone.InitFrequencyHz,
		volumePct:       tone.InitVolumePct,
		gapUnits:        tone.InitGapUnits,
		weightingPct:    tone.InitWeightingPct,
		slopeShape:      tone.DefaultSlopeShape,
		slopeDurationUs: tone.DefaultSlopeDurationUs,
	}
	g.resync()
	return g, nil
}

// SetLogger overrides the generator's logger (defaults to
// log.Default()). Pass a logger at log.With(...).Level(log.FatalLevel) or
// similar to silence it.
func (g *Generator) SetLogger(l *log.Logger) { g.logger = l }

// AttachKeyer sets the back-reference notified when a tone finishes.
func (g *Generator) AttachKeyer(k Keyer) { g.keyer = k }

// DetachKeyer clears the back-reference (called by Key on delete, per
// spec.md §5, so it never holds a dangling pointer into a freed Key).
func (g *Generator) DetachKeyer() { g.keyer = nil }

// AttachTransmitter sets the optional PTT hook.
func (g *Generator) AttachTransmitter(tx Transmitter) { g.transmitter = tx }

// Queue exposes the underlying tone queue for the external interface
// operations (flush, wait-for-level, is-full, remove-last-character) that
// spec.md §6 places directly on it.
func (g *Generator) Queue() *tonequeue.Queue { return g.queue }

// SampleRate returns the sample rate negotiated with the backend at Open.
func (g *Generator) SampleRate() int { return g.sampleRate }

// --- Parameters -------------------------------------------------------

func (g *Generator) SetSpeed(wpm int) error {
	if wpm < tone.MinSpeedWPM || wpm > tone.MaxSpeedWPM {
		return tone.ErrInvalid
	}
	g.paramMu.Lock()
	g.speedWPM = wpm
	g.parametersInSync = false
	g.paramMu.Unlock()
	return nil
}

func (g *Generator) Speed() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.speedWPM
}

func (g *Generator) SetFrequency(hz int) error {
	if hz < tone.MinFrequencyHz || hz > tone.MaxFrequencyHz {
		return tone.ErrInvalid
	}
	g.paramMu.Lock()
	g.frequencyHz = hz
	g.parametersInSync = false
	g.paramMu.Unlock()
	return nil
}

func (g *Generator) Frequency() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.frequencyHz
}

func (g *Generator) SetVolume(pct int) error {
	if pct < tone.MinVolumePct || pct > tone.MaxVolumePct {
		return tone.ErrInvalid
	}
	g.paramMu.Lock()
	g.volumePct = pct
	g.parametersInSync = false
	g.paramMu.Unlock()
	return nil
}

func (g *Generator) Volume() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.volumePct
}

// SetGap sets the Farnsworth-style extra inter-character-space units.
// Per DESIGN.md's Open Question resolution, this does NOT propagate to
// any attached receiver.
func (g *Generator) SetGap(units int) error {
	if units < tone.MinGapUnits || units > tone.MaxGapUnits {
		return tone.ErrInvalid
	}
	g.paramMu.Lock()
	g.gapUnits = units
	g.parametersInSync = false
	g.paramMu.Unlock()
	return nil
}

func (g *Generator) Gap() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.gapUnits
}

func (g *Generator) SetWeighting(pct int) error {
	if pct < tone.MinWeightingPct || pct > tone.MaxWeightingPct {
		return tone.ErrInvalid
	}
	g.paramMu.Lock()
	g.weightingPct = pct
	g.parametersInSync = false
	g.paramMu.Unlock()
	return nil
}

func (g *Generator) Weighting() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.weightingPct
}

// SetSlopeShape configures the envelope shape used for future tones.
func (g *Generator) SetSlopeShape(shape tone.Shape) {
	g.paramMu.Lock()
	g.slopeShape = shape
	g.parametersInSync = false
	g.paramMu.Unlock()
}

// ParametersInSync reports whether the derived timing/slope tables are
// current with the five tunable parameters.
func (g *Generator) ParametersInSync() bool {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.parametersInSync
}

// resync recomputes derived timing and the slope table if stale. It is
// idempotent and called lazily by every enqueue primitive, per spec.md
// §4.4.
func (g *Generator) resync() timing {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	if !g.parametersInSync {
		g.tm = computeTiming(g.speedWPM, g.weightingPct, g.gapUnits)
		g.slope = newSlopeTable(g.slopeShape, g.slopeDurationUs, g.sampleRate)
		g.parametersInSync = true
	}
	return g.tm
}

func (g *Generator) currentFrequency() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.frequencyHz
}

func (g *Generator) currentVolume() int {
	g.paramMu.Lock()
	defer g.paramMu.Unlock()
	return g.volumePct
}

// workerJoinTimeout bounds how long Stop waits for the worker goroutine
// to exit cleanly before giving up and tearing down the backend anyway,
// per spec.md §5.
const workerJoinTimeout = time.Second

// Start launches the dequeue-and-generate worker. Calling Start on an
// already-running Generator is a no-op.
func (g *Generator) Start() {
	if g.running.CompareAndSwap(false, true) {
		g.wg.Add(1)
		go g.runWorker()
	}
}

// Stop flushes the tone queue, wakes the worker, and waits up to
// workerJoinTimeout for it to exit before releasing the backend. Calling
// Stop on a Generator that isn't running is a no-op.
func (g *Generator) Stop() error {
	if !g.running.CompareAndSwap(true, false) {
		return nil
	}

	g.queue.Flush()
	g.queue.Wake()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(workerJoinTimeout):
		g.logger.Warn("generator worker did not exit within timeout; abandoning")
	}

	g.keyOff()
	return g.backend.Close()
}
