package backend

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// pulseBufferSamples sizes the internal ring feeding PulseAudio's pull
// callback at roughly one second of audio, generous enough that a
// generator render burst never blocks on WritePCM waiting for the server
// to drain, mirroring the margin ALSA's three-period buffer gives.
const pulseBufferSamples = 48000

// PulseAudio drives playback through the pure-Go jfreymuth/pulse client.
// Unlike ALSA's push-style Write, pulse's PlaybackStream pulls samples
// through a reader callback; this backend bridges the two styles with a
// buffered channel WritePCM feeds and the callback drains, so callers see
// the same blocking-write contract every other backend presents.
type PulseAudio struct {
	client  *pulse.Client
	stream  *pulse.PlaybackStream
	samples chan int16
}

func NewPulseAudio() *PulseAudio {
	return &PulseAudio{}
}

func (p *PulseAudio) Probe(device string) error {
	c, err := pulse.NewClient()
	if err != nil {
		return fmt.Errorf("backend: connect to PulseAudio: %w", err)
	}
	defer c.Close()
	return nil
}

func (p *PulseAudio) Open(sampleRateHint int) (int, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return 0, fmt.Errorf("backend: connect to PulseAudio: %w", err)
	}

	// The server resamples internally, so every candidate in the
	// preferred list is always acceptable; negotiateSampleRate still
	// picks deterministically, preferring the hint.
	rate, _ := negotiateSampleRate(sampleRateHint, func(int) bool { return true })

	p.samples = make(chan int16, pulseBufferSamples)
	reader := func(out []int16) (int, error) {
		n := 0
		for n < len(out) {
			s, ok := <-p.samples
			if !ok {
				for ; n < len(out); n++ {
					out[n] = 0
				}
				return len(out), nil
			}
			out[n] = s
			n++
		}
		return n, nil
	}

	stream, err := c.NewPlayback(pulse.Int16Writer(reader),
		pulse.PlaybackSampleRate(rate), pulse.PlaybackMono)
	if err != nil {
		c.Close()
		return 0, fmt.Errorf("backend: open PulseAudio playback stream: %w", err)
	}
	stream.Start()

	p.client = c
	p.stream = stream
	return rate, nil
}

func (p *PulseAudio) Close() error {
	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
	}
	if p.samples != nil {
		close(p.samples)
		p.samples = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	return nil
}

func (p *PulseAudio) SupportsPCM() bool { return true }

func (p *PulseAudio) WritePCM(samples []int16) error {
	for _, s := range samples {
		p.samples <- s
	}
	return nil
}

func (p *PulseAudio) WriteToneOnOff(bool, int64) error {
	return fmt.Errorf("backend: PulseAudio always supports PCM; WriteToneOnOff should not be called")
}
