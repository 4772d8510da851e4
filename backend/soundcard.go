package backend

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// SoundCard is the "auto" backend of spec.md §6's SoundSystem enum: it
// opens PortAudio's default output stream and lets PortAudio's own
// host-API negotiation pick whatever sound system the platform actually
// has (ALSA, PulseAudio, CoreAudio, WASAPI, ...), rather than this module
// re-deriving that choice. Grounded on the teacher's own
// gordonklaus/portaudio dependency.
type SoundCard struct {
	stream *portaudio.Stream
	buf    []int16
}

func NewSoundCard() *SoundCard {
	return &SoundCard{}
}

func (s *SoundCard) Probe(device string) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("backend: initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()
	if _, err := portaudio.DefaultOutputDevice(); err != nil {
		return fmt.Errorf("backend: no default PortAudio output device: %w", err)
	}
	return nil
}

func (s *SoundCard) Open(sampleRateHint int) (int, error) {
	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("backend: initialize PortAudio: %w", err)
	}

	rate, _ := negotiateSampleRate(sampleRateHint, func(int) bool { return true })

	// 20ms frames per buffer, the same chunk size the generator's
	// forever-tone rendering uses, so a PortAudio write corresponds to
	// one render chunk.
	framesPerBuffer := rate / 50
	if framesPerBuffer < 1 {
		framesPerBuffer = 1
	}
	s.buf = make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), framesPerBuffer, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("backend: open PortAudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return 0, fmt.Errorf("backend: start PortAudio stream: %w", err)
	}

	s.stream = stream
	return rate, nil
}

func (s *SoundCard) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	s.stream = nil
	portaudio.Terminate()
	return err
}

func (s *SoundCard) SupportsPCM() bool { return true }

func (s *SoundCard) WritePCM(samples []int16) error {
	for len(samples) > 0 {
		n := copy(s.buf, samples)
		for i := n; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("backend: PortAudio write: %w", err)
		}
		samples = samples[n:]
	}
	return nil
}

func (s *SoundCard) WriteToneOnOff(bool, int64) error {
	return fmt.Errorf("backend: SoundCard always supports PCM; WriteToneOnOff should not be called")
}
