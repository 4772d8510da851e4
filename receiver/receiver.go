// Package receiver implements C6, the timestamp-driven adaptive Morse
// decoder: mark-begin/mark-end events are classified into Dots and
// Dashes, assembled into a representation, and translated to a character
// through the dictionary package. It is a pure polling API per spec.md
// §4.6/§9 — "do not introduce internal threads in the receiver" — and has
// no pack-repo analog (no example implements receive-side CW decoding
// with this exact state graph); the state machine below is built directly
// from spec.md §4.6's prose description.
package receiver

import (
	"sync"

	"github.com/openmorse/gocw/dictionary"
	"github.com/openmorse/gocw/tone"
)

// State is one of the 7 states of spec.md §4.6's classifier graph.
type State int

const (
	Idle State = iota
	Mark
	InterMarkSpace
	EOCGap
	EOWGap
	EOCGapErr
	EOWGapErr
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Mark:
		return "MARK"
	case InterMarkSpace:
		return "INTER_MARK_SPACE"
	case EOCGap:
		return "EOC_GAP"
	case EOWGap:
		return "EOW_GAP"
	case EOCGapErr:
		return "EOC_GAP_ERR"
	case EOWGapErr:
		return "EOW_GAP_ERR"
	default:
		return "UNKNOWN"
	}
}

// RepresentationCapacity bounds the representation buffer at 256 Dot/Dash
// characters, per spec.md §3. The buffer is forced into an error state one
// short of this, at capacity-1, so an overflowing mark is never silently
// dropped.
const RepresentationCapacity = 256

// Receiver classifies a stream of mark_begin/mark_end/poll calls into
// Dots, Dashes and the three space kinds, optionally tracking the
// sender's speed from observed Dot/Dash durations.
type Receiver struct {
	mu sync.Mutex

	speedWPM              float64
	tolerancePct          int
	gapUnits              int
	adaptive              bool
	noiseSpikeThresholdUs int64

	windowsInSync bool
	dotWindow     window
	dashWindow    window
	imsWindow     window
	icsWindow     window

	adaptiveSpeedThresholdUs int64
	dotAvg                   movingAverage
	dashAvg                  movingAverage

	state        State
	markStart    int64
	markEnd      int64
	representation []byte

	// preMark* snapshot the state a mark_begin left behind, so a
	// subsequent noise-rejected mark_end can restore it verbatim instead
	// of inferring a replacement from the (possibly already-mutated)
	// representation buffer.
	preMarkState                   State
	preMarkRepresentation          []byte
	preMarkIsPendingInterWordSpace bool

	statBuf   [256]Stat
	statIdx   int
	statCount int

	isPendingInterWordSpace bool
}

// New constructs a Receiver with spec.md §6's default parameters: 12 WPM,
// 50% tolerance, no gap, fixed (non-adaptive) mode, and a 10ms noise-spike
// threshold.
func New() *Receiver {
	r := &Receiver{
		speedWPM:              tone.InitSpeedWPM,
		tolerancePct:          tone.InitTolerancePct,
		noiseSpikeThresholdUs: tone.InitNoiseSpikeThresholdUs,
	}
	r.resyncLocked()
	return r
}

// --- Parameters ---------------------------------------------------------

// SetSpeed fixes the receive speed. Returns tone.ErrBusy while adaptive
// mode is enabled (spec.md §7) and tone.ErrInvalid outside [MinSpeedWPM,
// MaxSpeedWPM].
func (r *Receiver) SetSpeed(wpm int) error {
	if wpm < tone.MinSpeedWPM || wpm > tone.MaxSpeedWPM {
		return tone.ErrInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adaptive {
		return tone.ErrBusy
	}
	r.speedWPM = float64(wpm)
	r.windowsInSync = false
	return nil
}

// Speed returns the current receive speed, which in adaptive mode tracks
// the sender automatically.
func (r *Receiver) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speedWPM
}

func (r *Receiver) SetTolerance(pct int) error {
	if pct < tone.MinTolerancePct || pct > tone.MaxTolerancePct {
		return tone.ErrInvalid
	}
	r.mu.Lock()
	r.tolerancePct = pct
	r.windowsInSync = false
	r.mu.Unlock()
	return nil
}

func (r *Receiver) Tolerance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tolerancePct
}

// SetGap widens the fixed-mode inter-character/inter-word windows by
// gapUnits extra dot-units, mirroring the generator's Farnsworth gap
// (DESIGN.md: the generator's own SetGap deliberately does not propagate
// here — this setter is how a caller opts a receiver into the same
// widening explicitly, if the sender is known to use Farnsworth spacing).
func (r *Receiver) SetGap(units int) error {
	if units < tone.MinGapUnits || units > tone.MaxGapUnits {
		return tone.ErrInvalid
	}
	r.mu.Lock()
	r.gapUnits = units
	r.windowsInSync = false
	r.mu.Unlock()
	return nil
}

func (r *Receiver) Gap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gapUnits
}

func (r *Receiver) SetNoiseSpikeThreshold(us int64) error {
	if us < 0 {
		return tone.ErrInvalid
	}
	r.mu.Lock()
	r.noiseSpikeThresholdUs = us
	r.mu.Unlock()
	return nil
}

func (r *Receiver) NoiseSpikeThreshold() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.noiseSpikeThresholdUs
}

// EnableAdaptiveMode switches the classifier to the adaptive windows of
// spec.md §4.6 and seeds the moving averages from the current speed so
// tracking starts near the operator's last-known rate instead of from
// zero.
func (r *Receiver) EnableAdaptiveMode() {
	r.mu.Lock()
	r.adaptive = true
	unit := int64(float64(tone.DotCalibrationMicrosecondsWPM) / r.speedWPM)
	r.dotAvg.reset(unit)
	r.dashAvg.reset(3 * unit)
	r.windowsInSync = false
	r.mu.Unlock()
}

func (r *Receiver) DisableAdaptiveMode() {
	r.mu.Lock()
	r.adaptive = false
	r.windowsInSync = false
	r.mu.Unlock()
}

func (r *Receiver) AdaptiveMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adaptive
}

// AdaptiveSpeedThreshold returns the microsecond midpoint between the
// tracked Dot and Dash moving averages (spec.md §4.6/§8); meaningless
// outside adaptive mode.
func (r *Receiver) AdaptiveSpeedThreshold() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adaptiveSpeedThresholdUs
}

// State reports the current classifier state.
func (r *Receiver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// resyncLocked recomputes the classification windows if parameters
// changed since the last call. Must be called with r.mu held.
func (r *Receiver) resyncLocked() {
	if r.windowsInSync {
		return
	}
	r.dotWindow, r.dashWindow, r.imsWindow, r.icsWindow = computeWindows(
		r.speedWPM, r.tolerancePct, r.gapUnits, r.adaptive)
	r.windowsInSync = true
}

// ResetState returns the classifier to IDLE and discards any partially
// built representation, without touching the adaptive speed tracker or
// parameters.
func (r *Receiver) ResetState() {
	r.mu.Lock()
	r.state = Idle
	r.representation = r.representation[:0]
	r.isPendingInterWordSpace = false
	r.mu.Unlock()
}

// ResetStatistics clears the duration-statistics ring buffer and, in
// adaptive mode, reseeds the moving averages from the current speed.
func (r *Receiver) ResetStatistics() {
	r.mu.Lock()
	r.statIdx = 0
	r.statCount = 0
	unit := int64(float64(tone.DotCalibrationMicrosecondsWPM) / r.speedWPM)
	r.dotAvg.reset(unit)
	r.dashAvg.reset(3 * unit)
	r.mu.Unlock()
}

// --- Mark/space classification ------------------------------------------

// MarkBegin records the start of a mark (key-down). Valid from any state
// except Mark itself (a mark_begin while already inside a mark has no
// matching mark_end and is a caller protocol error).
func (r *Receiver) MarkBegin(tsUs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Mark {
		return tone.ErrRange
	}

	r.preMarkState = r.state
	r.preMarkIsPendingInterWordSpace = r.isPendingInterWordSpace

	switch r.state {
	case InterMarkSpace:
		r.resyncLocked()
		r.recordStat(StatInterMarkSpace, tsUs-r.markEnd, r.imsWindow.idealUs)
	case EOCGap, EOWGap, EOCGapErr, EOWGapErr:
		// A new mark after a completed (or errored) character starts the
		// next one; nothing carries over from the old representation
		// unless this mark turns out to be noise, in which case MarkEnd
		// restores the snapshot taken here.
		r.preMarkRepresentation = append(r.preMarkRepresentation[:0], r.representation...)
		r.representation = r.representation[:0]
		r.isPendingInterWordSpace = false
	}
	r.markStart = tsUs
	r.state = Mark
	return nil
}

// MarkEnd records the end of a mark and classifies its duration. A mark
// shorter than the noise-spike threshold is rejected: state, markEnd and
// the representation buffer are all left exactly as they were before the
// matching MarkBegin (spec.md §4.6's noise-rejection invariant), and
// ErrNoise is returned.
func (r *Receiver) MarkEnd(tsUs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Mark {
		return tone.ErrRange
	}
	r.resyncLocked()

	duration := tsUs - r.markStart
	if duration <= r.noiseSpikeThresholdUs {
		r.state = r.preMarkState
		switch r.preMarkState {
		case EOCGap, EOWGap, EOCGapErr, EOWGapErr:
			r.representation = append(r.representation[:0], r.preMarkRepresentation...)
			r.isPendingInterWordSpace = r.preMarkIsPendingInterWordSpace
		}
		return tone.ErrNoise
	}

	r.markEnd = tsUs

	switch {
	case r.dotWindow.contains(duration):
		return r.classifyMark('.', StatDot, duration, r.dotWindow.idealUs)
	case r.dashWindow.contains(duration):
		return r.classifyMark('-', StatDash, duration, r.dashWindow.idealUs)
	default:
		if float64(duration) > r.icsWindow.maxUs {
			r.state = EOWGapErr
		} else {
			r.state = EOCGapErr
		}
		return tone.ErrBadMark
	}
}

// AddMark is a convenience combining MarkBegin/MarkEnd for callers that
// already know a mark's start and duration (e.g. a test, or a client
// replaying logged timings) rather than observing raw edges; the mark's
// kind is classified from its duration as in MarkEnd.
func (r *Receiver) AddMark(tsUs, durationUs int64) error {
	if err := r.MarkBegin(tsUs); err != nil {
		return err
	}
	return r.MarkEnd(tsUs + durationUs)
}

func (r *Receiver) classifyMark(symbol byte, kind StatKind, duration int64, idealUs float64) error {
	if len(r.representation) >= RepresentationCapacity-1 {
		r.state = EOCGapErr
		return tone.ErrNoMemory
	}
	r.recordStat(kind, duration, idealUs)
	r.representation = append(r.representation, symbol)
	if r.adaptive {
		if kind == StatDot {
			r.dotAvg.update(duration)
		} else {
			r.dashAvg.update(duration)
		}
		r.recomputeAdaptiveSpeedLocked()
	}
	r.state = InterMarkSpace
	return nil
}

// recomputeAdaptiveSpeedLocked updates the tracked speed from the current
// Dot/Dash moving averages, per spec.md §4.6: the adaptive speed
// threshold is their midpoint, and the unit (hence WPM) it implies is
// half that midpoint, since an ideal Dot (1 unit) and Dash (3 units)
// average to 2 units. Must be called with r.mu held.
func (r *Receiver) recomputeAdaptiveSpeedLocked() {
	threshold := float64(r.dotAvg.average()+r.dashAvg.average()) / 2
	r.adaptiveSpeedThresholdUs = int64(threshold)

	unit := threshold / 2
	if unit <= 0 {
		return
	}
	wpm := float64(tone.DotCalibrationMicrosecondsWPM) / unit
	if wpm < tone.MinSpeedWPM {
		wpm = tone.MinSpeedWPM
	}
	if wpm > tone.MaxSpeedWPM {
		wpm = tone.MaxSpeedWPM
	}
	r.speedWPM = wpm
	r.windowsInSync = false
	r.resyncLocked()
}

// --- Polling --------------------------------------------------------------

// Representation is the snapshot PollRepresentation/PollCharacter return.
type Representation struct {
	Marks       string
	IsEndOfWord bool
	IsError     bool
}

// PollRepresentation classifies the elapsed inter-mark-space (if any)
// against tsUs and reports the representation built so far. Returns
// tone.ErrAgain if the character is not yet complete, and tone.ErrRange if
// called from IDLE or MARK (spec.md §4.6).
func (r *Receiver) PollRepresentation(tsUs int64) (Representation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Idle, Mark:
		return Representation{}, tone.ErrRange
	case InterMarkSpace:
		r.resyncLocked()
		elapsed := float64(tsUs - r.markEnd)
		switch {
		case elapsed < r.icsWindow.minUs:
			return Representation{}, tone.ErrAgain
		case elapsed <= r.icsWindow.maxUs:
			r.state = EOCGap
		default:
			r.state = EOWGap
		}
	}

	switch r.state {
	case EOCGap:
		return Representation{Marks: string(r.representation)}, nil
	case EOWGap:
		return Representation{Marks: string(r.representation), IsEndOfWord: true}, nil
	case EOCGapErr:
		return Representation{Marks: string(r.representation), IsError: true}, nil
	case EOWGapErr:
		return Representation{Marks: string(r.representation), IsEndOfWord: true, IsError: true}, nil
	default:
		return Representation{}, tone.ErrAgain
	}
}

// PollCharacter polls the representation and, on a complete non-error
// character, translates it through the dictionary. On success it arms
// IsPendingInterWordSpace so a following poll can report a trailing
// word-separator (spec.md §4.6).
func (r *Receiver) PollCharacter(tsUs int64) (ch byte, isEndOfWord bool, err error) {
	rep, err := r.PollRepresentation(tsUs)
	if err != nil {
		return 0, false, err
	}
	if rep.IsError {
		return 0, rep.IsEndOfWord, tone.ErrInvalid
	}
	ch, err = dictionary.RepresentationToCharacter(rep.Marks)
	if err != nil {
		return 0, rep.IsEndOfWord, err
	}
	r.mu.Lock()
	r.isPendingInterWordSpace = true
	r.mu.Unlock()
	return ch, rep.IsEndOfWord, nil
}

// IsPendingInterWordSpace reports whether a PollCharacter has succeeded
// since the current character was started. It is set by every successful
// PollCharacter, whether the gap was inter-character or inter-word, and
// cleared by the MarkBegin that starts the next character or by
// ResetState.
func (r *Receiver) IsPendingInterWordSpace() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isPendingInterWordSpace
}
