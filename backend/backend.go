// Package backend implements the concrete sound sinks satisfying
// generator.Backend: Null (silent, for tests), Console (on/off beeper via
// the PC speaker ioctl), OSS and ALSA (Linux PCM devices), PulseAudio, and
// a SoundCard-auto backend that lets PortAudio pick whatever host API is
// available. It is grounded in doismellburning-samoyed/src/audio.go's
// device negotiation and src/ptt.go's ioctl/probe idioms, adapted from
// cgo calls against libasound/OSS headers to the pure-Go bindings listed
// in SPEC_FULL.md's domain stack.
package backend

import (
	"fmt"
	"time"

	"github.com/openmorse/gocw/tone"
)

// sleepMicroseconds blocks for the given duration, used by the on/off-only
// Console backend, whose underlying ioctl returns immediately rather than
// blocking for the tone's length itself.
func sleepMicroseconds(us int64) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// negotiateSampleRate tries hint first (when it is positive), then every
// other rate of tone.PreferredSampleRatesDescending from the top of the
// list down, and returns the first rate accept returns true for. Grounded on
// audio.go's set_alsa_params "ask for a rate, get told what we actually
// got" negotiation, generalized to try several candidates instead of one.
func negotiateSampleRate(hint int, accept func(rate int) bool) (int, error) {
	tried := map[int]bool{}
	if hint > 0 {
		tried[hint] = true
		if accept(hint) {
			return hint, nil
		}
	}
	for _, r := range tone.PreferredSampleRatesDescending {
		if tried[r] {
			continue
		}
		tried[r] = true
		if accept(r) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("backend: no acceptable sample rate among %v", tone.PreferredSampleRatesDescending)
}
