package generator

// Backend is the uniform capability set every sound sink implements:
// probe, open, close, write — matching spec.md §4.2's C2 contract. It is
// satisfied by the concrete sinks in package backend (Null, Console, OSS,
// ALSA, PulseAudio, SoundCard-auto); Generator depends only on this
// interface so it never imports package backend.
type Backend interface {
	// Probe reports whether device is reachable by this backend, without
	// fully opening it for output.
	Probe(device string) error

	// Open prepares the sink for writing at (approximately)
	// sampleRateHint samples/sec and returns the sample rate actually in
	// effect, which PCM-capable backends choose by probing
	// tone.PreferredSampleRatesDescending.
	Open(sampleRateHint int) (sampleRate int, err error)

	// Close releases the sink. The Generator calls this once, from
	// Stop(), after its worker goroutine has been joined.
	Close() error

	// SupportsPCM reports whether this backend can render a shaped
	// waveform (Null/OSS/ALSA/PulseAudio/SoundCard) or only toggle a
	// carrier on and off (Console).
	SupportsPCM() bool

	// WritePCM blocks until samples (signed 16-bit, one sample per frame;
	// a backend opened with more than one channel copies each sample to
	// every channel) have been handed to the kernel/server. Only called when SupportsPCM is
	// true. An underrun is recovered internally (re-preparing the sink)
	// and reported as an error for that write only.
	WritePCM(samples []int16) error

	// WriteToneOnOff blocks for durationUs microseconds, driving the sink
	// on (for a tone) or off (silence). Only called when SupportsPCM is
	// false.
	WriteToneOnOff(on bool, durationUs int64) error
}
