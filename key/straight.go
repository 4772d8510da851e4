package key

import "sync"

// StraightKeyGenerator is the slice of *generator.Generator a Straight key
// needs: enough to start/stop an indefinite carrier.
type StraightKeyGenerator interface {
	EnqueueBeginMark() error
	EnqueueBeginSpace() error
}

// Straight is a single-contact key: its value is Open (space) or Closed
// (mark), and every value change enqueues an indefinite ("forever") tone
// into its generator that the next change supersedes.
type Straight struct {
	mu    sync.Mutex
	value PaddleValue
	gen   StraightKeyGenerator

	receiver Receiver
	clock    Clock
}

// NewStraight constructs a Straight key bound to gen, which must be
// non-nil per spec.md §3 ("mandatory if producing sound").
func NewStraight(gen StraightKeyGenerator) *Straight {
	return &Straight{gen: gen}
}

// AttachReceiver arms the optional receiver notification described in
// key.go; pass nil, nil to detach.
func (s *Straight) AttachReceiver(r Receiver, c Clock) {
	s.mu.Lock()
	s.receiver, s.clock = r, c
	s.mu.Unlock()
}

// Value returns the key's current contact state.
func (s *Straight) Value() PaddleValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SetValue updates the contact state. A call that repeats the current
// value is a no-op, per spec.md §4.5.
func (s *Straight) SetValue(v PaddleValue) error {
	s.mu.Lock()
	if v == s.value {
		s.mu.Unlock()
		return nil
	}
	s.value = v
	recv, clk := s.receiver, s.clock
	s.mu.Unlock()

	if v == Closed {
		notifyMarkBegin(recv, clk)
		return s.gen.EnqueueBeginMark()
	}
	notifyMarkEnd(recv, clk)
	return s.gen.EnqueueBeginSpace()
}

// Delete detaches the straight key from its generator. Present for
// symmetry with Iambic.Delete; a straight key holds no generator
// back-reference to clear (it is never registered as a generator.Keyer),
// so this only severs its own reference.
func (s *Straight) Delete() {
	s.mu.Lock()
	s.gen = nil
	s.mu.Unlock()
}
