// Package tonequeue implements the bounded, circular-buffer tone FIFO a
// Generator dequeues from. It is grounded in
// doismellburning-samoyed/src/tq.go's producer/consumer design: one mutex
// protects the buffer indices, and a second, smaller mutex/condvar pair
// exists purely to let the consumer broadcast to waiters without holding
// the indices' mutex (so a low-watermark callback or a waiter can
// re-enter Enqueue without deadlocking).
package tonequeue

import (
	"sync"

	"github.com/openmorse/gocw/tone"
)

// LowWaterCallback is invoked, outside the queue's mutex, each time a
// Dequeue causes the queue length to cross from above the low-water mark
// down to at or below it.
type LowWaterCallback func(arg any)

// Queue is a bounded circular buffer of tone.Tone.
type Queue struct {
	mu       sync.Mutex
	buf      []tone.Tone
	head     int
	tail     int
	length   int
	capacity int

	lowWaterMark int
	lowWaterCB   LowWaterCallback
	lowWaterArg  any

	waitMu        sync.Mutex
	levelChanged  *sync.Cond // broadcast whenever length changes.
	becameNonEmpty *sync.Cond // broadcast on an EMPTY -> NONEMPTY transition.
}

// New creates a Queue with the given capacity, clamped to
// [1, tone.CapacityMax].
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > tone.CapacityMax {
		capacity = tone.CapacityMax
	}
	q := &Queue{
		buf:          make([]tone.Tone, capacity),
		capacity:     capacity,
		lowWaterMark: -1, // no watermark configured.
	}
	q.levelChanged = sync.NewCond(&q.waitMu)
	q.becameNonEmpty = sync.NewCond(&q.waitMu)
	return q
}

// SetLowWaterMark arms (or disarms, with cb == nil) the low-watermark
// callback. It fires each time Dequeue observes the length cross from
// above level down to at-or-below it.
func (q *Queue) SetLowWaterMark(level int, cb LowWaterCallback, arg any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lowWaterMark = level
	q.lowWaterCB = cb
	q.lowWaterArg = arg
}

// Len returns the current number of queued tones.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// IsFull reports whether the queue currently rejects further enqueues.
func (q *Queue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length == q.capacity
}

// Capacity returns the queue's fixed capacity.
func (q *Queue) Capacity() int { return q.capacity }

// Enqueue validates and appends t. Duration == 0 is accepted as a no-op
// per spec: the frequency is still validated, but nothing is queued and
// Enqueue returns nil without affecting length or waiters.
func (q *Queue) Enqueue(t tone.Tone) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.DurationUs == 0 {
		return nil
	}

	q.mu.Lock()
	if q.length == q.capacity {
		q.mu.Unlock()
		return tone.ErrFull
	}
	q.buf[q.tail] = t
	q.tail = (q.tail + 1) % q.capacity
	q.length++
	wasEmpty := q.length == 1
	q.mu.Unlock()

	if wasEmpty {
		q.waitMu.Lock()
		q.becameNonEmpty.Broadcast()
		q.waitMu.Unlock()
	}
	return nil
}

// Dequeue returns the tone at the head of the queue. If that tone has its
// Forever flag set and is the sole remaining tone, it is copied out but
// NOT removed: repeated calls keep returning it until a new tone is
// enqueued, at which point it is advanced like any other tone. Returns
// ok == false if the queue is empty.
func (q *Queue) Dequeue() (t tone.Tone, ok bool) {
	q.mu.Lock()
	if q.length == 0 {
		q.mu.Unlock()
		return tone.Tone{}, false
	}

	t = q.buf[q.head]
	if t.Forever && q.length == 1 {
		q.mu.Unlock()
		return t, true
	}

	prevLen := q.length
	q.head = (q.head + 1) % q.capacity
	q.length--

	crossed := q.lowWaterCB != nil && q.lowWaterMark >= 0 &&
		prevLen > q.lowWaterMark && q.length <= q.lowWaterMark
	cb, arg := q.lowWaterCB, q.lowWaterArg
	q.mu.Unlock()

	q.waitMu.Lock()
	q.levelChanged.Broadcast()
	q.waitMu.Unlock()

	if crossed {
		cb(arg)
	}
	return t, true
}

// WaitForLevel blocks until the queue length is <= level. A level already
// satisfied returns immediately.
func (q *Queue) WaitForLevel(level int) {
	q.waitMu.Lock()
	defer q.waitMu.Unlock()
	for q.Len() > level {
		q.levelChanged.Wait()
	}
}

// WaitForEndOfCurrentTone blocks on a single "level changed" notification,
// i.e. until the next tone finishes dequeuing (or the queue is flushed).
func (q *Queue) WaitForEndOfCurrentTone() {
	q.waitMu.Lock()
	defer q.waitMu.Unlock()
	q.levelChanged.Wait()
}

// DequeueBlocking waits for a non-empty queue and then dequeues. running is
// polled after every wakeup (spurious or real); DequeueBlocking returns
// ok == false as soon as running reports false, which is how the
// generator's dequeue-and-generate worker notices generator_stop without
// a dedicated cancellation channel. Stop must broadcast the queue's
// waiters (Wake) after clearing running, or the worker would sleep forever
// on an empty queue.
func (q *Queue) DequeueBlocking(running func() bool) (t tone.Tone, ok bool) {
	q.waitMu.Lock()
	for q.Len() == 0 {
		if !running() {
			q.waitMu.Unlock()
			return tone.Tone{}, false
		}
		q.becameNonEmpty.Wait()
	}
	q.waitMu.Unlock()

	if !running() {
		return tone.Tone{}, false
	}
	return q.Dequeue()
}

// Wake broadcasts both condition variables, unblocking anything waiting in
// DequeueBlocking, WaitForLevel or WaitForEndOfCurrentTone so they can
// recheck their predicate (or a running flag the caller controls).
func (q *Queue) Wake() {
	q.waitMu.Lock()
	q.levelChanged.Broadcast()
	q.becameNonEmpty.Broadcast()
	q.waitMu.Unlock()
}

// Flush atomically empties the queue and wakes any level waiters.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.length = 0
	q.head = 0
	q.tail = 0
	q.mu.Unlock()

	q.waitMu.Lock()
	q.levelChanged.Broadcast()
	q.waitMu.Unlock()
}

// RemoveLastCharacter scans backward from the tail for the most recently
// enqueued tone with IsFirst set, and truncates the queue to just before
// it (i.e. removes every tone belonging to the last, not-yet-rendered
// character). Reports whether a character boundary was found and removed.
func (q *Queue) RemoveLastCharacter() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos := q.tail
	removed := 0
	for removed < q.length {
		pos = (pos - 1 + q.capacity) % q.capacity
		removed++
		if q.buf[pos].IsFirst {
			q.tail = pos
			q.length -= removed
			return true
		}
	}
	return false
}
