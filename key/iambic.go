package key

import (
	"sync"
	"sync/atomic"

	"github.com/openmorse/gocw/generator"
)

// GraphState is one of the 9 states of spec.md §4.5's iambic-keyer graph.
type GraphState int

const (
	Idle GraphState = iota
	InDotA
	InDashA
	AfterDotA
	AfterDashA
	InDotB
	InDashB
	AfterDotB
	AfterDashB
)

func (s GraphState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case InDotA:
		return "IN_DOT_A"
	case InDashA:
		return "IN_DASH_A"
	case AfterDotA:
		return "AFTER_DOT_A"
	case AfterDashA:
		return "AFTER_DASH_A"
	case InDotB:
		return "IN_DOT_B"
	case InDashB:
		return "IN_DASH_B"
	case AfterDotB:
		return "AFTER_DOT_B"
	case AfterDashB:
		return "AFTER_DASH_B"
	default:
		return "UNKNOWN"
	}
}

// IambicGenerator is the slice of *generator.Generator the keyer drives:
// one tick (mark, no inter-mark-space) at a time, plus the inter-mark-
// space between ticks, which the keyer enqueues itself so its own timing
// — not the dictionary's — measures each element.
type IambicGenerator interface {
	EnqueueSymbolNoIMS(kind generator.Mark, isFirst bool) error
	EnqueueInterMarkSpace() error
}

// Iambic implements the Curtis 8044 mode A/B iambic keyer: paddle and
// generator-completion events both funnel through update, guarded by the
// advisory lock flag of spec.md §4.5/§9 (a plain boolean, not a mutex —
// reentrant callers drop out immediately since the in-flight call will
// advance the state on their behalf).
type Iambic struct {
	gen IambicGenerator

	mu           sync.Mutex
	graphState   GraphState
	dotPaddle    PaddleValue
	dashPaddle   PaddleValue
	dotLatch     bool
	dashLatch    bool
	curtisModeB  bool
	curtisBLatch bool
	receiver     Receiver
	clock        Clock

	lock atomic.Bool

	waitMu   sync.Mutex
	stepCond *sync.Cond
}

// NewIambic constructs an Iambic keyer bound to gen (mandatory, per
// spec.md §3) with Curtis mode B disabled (mode A is the classic default).
func NewIambic(gen IambicGenerator) *Iambic {
	k := &Iambic{gen: gen}
	k.stepCond = sync.NewCond(&k.waitMu)
	return k
}

// AttachReceiver arms the optional receiver notification of key.go: every
// mark this keyer emits is bracketed by MarkBegin/MarkEnd. Pass nil, nil
// to detach.
func (k *Iambic) AttachReceiver(r Receiver, c Clock) {
	k.mu.Lock()
	k.receiver, k.clock = r, c
	k.mu.Unlock()
}

// EnableCurtisModeB / DisableCurtisModeB toggle the trailing-element
// behavior described in spec.md §4.5.
func (k *Iambic) EnableCurtisModeB() {
	k.mu.Lock()
	k.curtisModeB = true
	k.mu.Unlock()
}

func (k *Iambic) DisableCurtisModeB() {
	k.mu.Lock()
	k.curtisModeB = false
	k.curtisBLatch = false
	k.mu.Unlock()
}

func (k *Iambic) CurtisModeB() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.curtisModeB
}

// GetPaddles reports the last-notified paddle values.
func (k *Iambic) GetPaddles() (dot, dash PaddleValue) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.dotPaddle, k.dashPaddle
}

// State reports the current graph state, chiefly for tests and
// diagnostics.
func (k *Iambic) State() GraphState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.graphState
}

// KeyerDetacher is the slice of *generator.Generator needed to sever its
// back-reference to a Keyer on delete.
type KeyerDetacher interface {
	DetachKeyer()
}

// Delete detaches the keyer from its generator's back-reference before
// the keyer itself is discarded, per spec.md §5 ("key_delete unlinks from
// its generator first").
func (k *Iambic) Delete(gen KeyerDetacher) {
	if gen != nil {
		gen.DetachKeyer()
	}
	k.mu.Lock()
	k.gen = nil
	k.mu.Unlock()
}

// NotifyDotPaddleEvent notifies the keyer of a Dot paddle value change,
// leaving the Dash paddle's last-known value unchanged.
func (k *Iambic) NotifyDotPaddleEvent(v PaddleValue) error {
	_, dash := k.GetPaddles()
	return k.NotifyPaddleEvent(v, dash)
}

// NotifyDashPaddleEvent is the Dash-paddle analog of NotifyDotPaddleEvent.
func (k *Iambic) NotifyDashPaddleEvent(v PaddleValue) error {
	dot, _ := k.GetPaddles()
	return k.NotifyPaddleEvent(dot, v)
}

// NotifyPaddleEvent reports both paddles' current values at once. Latches
// are set the instant a paddle is observed transitioning Open -> Closed
// (spec.md §4.5); if both paddles are Closed simultaneously with Curtis
// mode B enabled, the Curtis-B latch is set too. The first Closed paddle
// seen while the graph is Idle synthesizes an entry point (the "initial
// nudge") before falling into the same update routine a generator
// completion notification uses.
func (k *Iambic) NotifyPaddleEvent(dot, dash PaddleValue) error {
	k.mu.Lock()
	wasBothOpen := k.dotPaddle == Open && k.dashPaddle == Open
	if dot == Closed && k.dotPaddle == Open {
		k.dotLatch = true
	}
	if dash == Closed && k.dashPaddle == Open {
		k.dashLatch = true
	}
	k.dotPaddle = dot
	k.dashPaddle = dash
	if k.curtisModeB && dot == Closed && dash == Closed {
		k.curtisBLatch = true
	}

	initialNudge := wasBothOpen && k.graphState == Idle && (dot == Closed || dash == Closed)
	if initialNudge {
		// Synthesize the AFTER_* state whose latch inspection will
		// immediately produce the paddle-indicated element. Always
		// the _A variant; if both paddles closed at once the
		// curtisBLatch set above still applies when the normal
		// AFTER_* logic below picks the element's family.
		if dot == Closed {
			k.graphState = AfterDashA
		} else {
			k.graphState = AfterDotA
		}
	}
	k.mu.Unlock()

	// Every other state already has a generator tone in flight whose
	// completion (NotifyToneComplete) is what advances the graph; a
	// paddle event arriving mid-element only needs to update the
	// latches above; the initial nudge is the one case it must also
	// drive the graph itself, since IDLE has nothing in flight to
	// complete.
	if !initialNudge {
		return nil
	}
	return k.runUpdate()
}

// NotifyToneComplete satisfies generator.Keyer: the dequeue-and-generate
// worker calls this once a non-forever tone finishes rendering, which is
// the sole trigger that advances IN_DOT/IN_DASH/AFTER_DOT/AFTER_DASH
// states (spec.md §4.5; IDLE is only exited by a paddle event).
func (k *Iambic) NotifyToneComplete() {
	_ = k.runUpdate()
}

// runUpdate applies the re-entrancy guard described in spec.md §4.5/§9: if
// an update is already in flight (on any goroutine), this call drops out
// immediately and returns success, trusting the in-flight call to observe
// whatever state this caller just wrote.
func (k *Iambic) runUpdate() error {
	if !k.lock.CompareAndSwap(false, true) {
		return nil
	}
	err := k.step()
	k.lock.Store(false)

	k.waitMu.Lock()
	k.stepCond.Broadcast()
	k.waitMu.Unlock()
	return err
}

func (k *Iambic) step() error {
	switch k.State() {
	case Idle:
		return nil
	case InDotA, InDotB:
		return k.elementComplete(true)
	case InDashA, InDashB:
		return k.elementComplete(false)
	case AfterDotA:
		return k.afterMark(true, false)
	case AfterDotB:
		return k.afterMark(true, true)
	case AfterDashA:
		return k.afterMark(false, false)
	case AfterDashB:
		return k.afterMark(false, true)
	default:
		return nil
	}
}

// elementComplete handles the IN_DOT/IN_DASH -> AFTER_DOT/AFTER_DASH
// transition: enqueue the trailing inter-mark-space, carrying the _A/_B
// family tag the just-finished element already had (the tag is decided
// once, by emitDot/emitDash, when the element is started — see afterMark
// for where a fresh Curtis-B tag is actually chosen).
func (k *Iambic) elementComplete(wasDot bool) error {
	notifyMarkEndFor(k)

	err := k.gen.EnqueueInterMarkSpace()

	k.mu.Lock()
	isB := k.graphState == InDotB || k.graphState == InDashB
	if wasDot {
		if isB {
			k.graphState = AfterDotB
		} else {
			k.graphState = AfterDotA
		}
	} else {
		if isB {
			k.graphState = AfterDashB
		} else {
			k.graphState = AfterDashA
		}
	}
	k.mu.Unlock()
	return err
}

// afterMark handles the AFTER_DOT/AFTER_DASH -> {IN_DOT, IN_DASH, IDLE}
// transition. isB selects the Curtis-B trailing-element rule; otherwise
// the opposite element's latch is inspected before the same element's,
// per spec.md §4.5's literal ordering.
func (k *Iambic) afterMark(wasDot, isB bool) error {
	if isB {
		if wasDot {
			return k.emitDash(false)
		}
		return k.emitDot(false)
	}

	k.mu.Lock()
	if k.dotPaddle == Open {
		k.dotLatch = false
	}
	if k.dashPaddle == Open {
		k.dashLatch = false
	}
	dotLatch, dashLatch, curtisBLatch := k.dotLatch, k.dashLatch, k.curtisBLatch
	k.mu.Unlock()

	oppositeLatch, sameLatch := dashLatch, dotLatch
	if !wasDot {
		oppositeLatch, sameLatch = dotLatch, dashLatch
	}

	switch {
	case oppositeLatch:
		intoB := curtisBLatch
		if intoB {
			k.mu.Lock()
			k.curtisBLatch = false
			k.mu.Unlock()
		}
		if wasDot {
			return k.emitDash(intoB)
		}
		return k.emitDot(intoB)
	case sameLatch:
		if wasDot {
			return k.emitDot(false)
		}
		return k.emitDash(false)
	default:
		k.mu.Lock()
		k.graphState = Idle
		k.mu.Unlock()
		return nil
	}
}

func (k *Iambic) emitDot(intoB bool) error {
	notifyMarkBeginFor(k)
	err := k.gen.EnqueueSymbolNoIMS(generator.Dot, false)
	k.mu.Lock()
	if intoB {
		k.graphState = InDotB
	} else {
		k.graphState = InDotA
	}
	k.mu.Unlock()
	return err
}

func (k *Iambic) emitDash(intoB bool) error {
	notifyMarkBeginFor(k)
	err := k.gen.EnqueueSymbolNoIMS(generator.Dash, false)
	k.mu.Lock()
	if intoB {
		k.graphState = InDashB
	} else {
		k.graphState = InDashA
	}
	k.mu.Unlock()
	return err
}

func notifyMarkBeginFor(k *Iambic) {
	k.mu.Lock()
	recv, clk := k.receiver, k.clock
	k.mu.Unlock()
	notifyMarkBegin(recv, clk)
}

func notifyMarkEndFor(k *Iambic) {
	k.mu.Lock()
	recv, clk := k.receiver, k.clock
	k.mu.Unlock()
	notifyMarkEnd(recv, clk)
}

// WaitForKeyer blocks until the graph returns to IDLE, i.e. until both
// paddles have been released and every latched element has drained. Per
// DESIGN.md's Open Question resolution, this does not time out: a paddle
// held closed forever is a caller bug, not a condition the library papers
// over with a synthetic deadline.
func (k *Iambic) WaitForKeyer() {
	k.waitMu.Lock()
	defer k.waitMu.Unlock()
	for k.State() != Idle {
		k.stepCond.Wait()
	}
}

// WaitForEndOfCurrentElement blocks for a single state-machine step,
// i.e. until the element (or gap) currently in flight finishes and the
// graph advances. Spurious wakeups are possible; callers that need a
// specific state should loop WaitForEndOfCurrentElement themselves and
// recheck State().
func (k *Iambic) WaitForEndOfCurrentElement() {
	k.waitMu.Lock()
	defer k.waitMu.Unlock()
	k.stepCond.Wait()
}
