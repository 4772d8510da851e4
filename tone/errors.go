// Package tone defines the value types and error vocabulary shared by the
// tone queue, generator, key and receiver packages.
package tone

import "errors"

// Sentinel errors surfaced to callers, per the library's error design.
// Check with errors.Is. Errors from sound backends and hardware adapters,
// and the backend error generator.New wraps, are not among these.
var (
	// ErrInvalid marks an out-of-range parameter, malformed representation,
	// or bad timestamp.
	ErrInvalid = errors.New("tone: invalid parameter")
	// ErrFull marks a tone queue that cannot accept another tone.
	ErrFull = errors.New("tone: queue full")
	// ErrNotFound marks a character with no Morse representation, or a
	// representation with no character.
	ErrNotFound = errors.New("tone: not found")
	// ErrNoMemory marks a receiver representation buffer overflow.
	ErrNoMemory = errors.New("tone: no memory")
	// ErrNoise marks a mark shorter than the noise-spike threshold.
	ErrNoise = errors.New("tone: noise")
	// ErrBadMark marks a mark duration that fits neither the Dot nor the
	// Dash window.
	ErrBadMark = errors.New("tone: bad mark")
	// ErrAgain marks a poll performed before the character is complete.
	ErrAgain = errors.New("tone: again")
	// ErrRange marks an operation attempted in a state that does not
	// permit it.
	ErrRange = errors.New("tone: out of range state")
	// ErrBusy marks an attempt to set fixed speed while adaptive mode is on.
	ErrBusy = errors.New("tone: busy")
)
