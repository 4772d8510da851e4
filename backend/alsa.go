package backend

import (
	"fmt"

	"github.com/yobert/alsa"

	"github.com/openmorse/gocw/tone"
)

// ALSA drives a PCM playback device through the pure-Go yobert/alsa
// binding. Grounded on audio.go's set_alsa_params negotiation sequence
// (access mode, format, channels, rate, then period size), adapted from
// libasound's snd_pcm_hw_params_* calls to yobert/alsa's Negotiate*
// methods, and on spec.md §4.2's period-size rule: a period is a fifth of
// the shortest Dot at the fastest supported speed, and the device buffer
// is negotiated at three periods (or six). The period size itself is not
// negotiated; the device keeps its own.
type ALSA struct {
	deviceName string
	device     *alsa.Device
	channels   int
	rate       int
}

func NewALSA(deviceName string) *ALSA {
	return &ALSA{deviceName: deviceName}
}

func findPlaybackDevice(name string) (*alsa.Device, error) {
	cards, err := alsa.OpenCards()
	if err != nil {
		return nil, fmt.Errorf("backend: open ALSA cards: %w", err)
	}
	for _, card := range cards {
		devices, err := card.Devices()
		if err != nil {
			continue
		}
		for _, d := range devices {
			if d.Type != alsa.PlaybackDevice {
				continue
			}
			if name == "" || name == "default" || d.Title == name || d.Path == name {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("backend: no ALSA playback device matching %q", name)
}

func (a *ALSA) Probe(device string) error {
	d, err := findPlaybackDevice(device)
	if err != nil {
		return err
	}
	return d.Close()
}

func (a *ALSA) Open(sampleRateHint int) (int, error) {
	d, err := findPlaybackDevice(a.deviceName)
	if err != nil {
		return 0, err
	}
	if err := d.Open(); err != nil {
		return 0, fmt.Errorf("backend: open ALSA device: %w", err)
	}

	channels, err := d.NegotiateChannels(1, 1)
	if err != nil {
		d.Close()
		return 0, fmt.Errorf("backend: negotiate ALSA channels: %w", err)
	}
	if _, err := d.NegotiateFormat(alsa.S16_LE); err != nil {
		d.Close()
		return 0, fmt.Errorf("backend: negotiate ALSA format: %w", err)
	}
	rate, err := d.NegotiateRate(tone.PreferredSampleRatesDescending...)
	if err != nil {
		d.Close()
		return 0, fmt.Errorf("backend: negotiate ALSA rate: %w", err)
	}

	// periodFrames is a fifth of the shortest possible Dot (at the
	// fastest supported speed). It only sizes the buffer request, three
	// periods deep or else six; no period size is requested from the
	// device.
	dotUsAtMaxSpeed := int64(tone.DotCalibrationMicrosecondsWPM) / int64(tone.MaxSpeedWPM)
	periodFrames := int(dotUsAtMaxSpeed) * rate / (5 * 1_000_000)
	if periodFrames < 32 {
		periodFrames = 32
	}
	if _, err := d.NegotiateBufferSize(periodFrames*3, periodFrames*6); err != nil {
		d.Close()
		return 0, fmt.Errorf("backend: negotiate ALSA buffer size: %w", err)
	}
	if err := d.Prepare(); err != nil {
		d.Close()
		return 0, fmt.Errorf("backend: prepare ALSA device: %w", err)
	}

	a.device = d
	a.channels = channels
	a.rate = rate
	return rate, nil
}

func (a *ALSA) Close() error {
	if a.device == nil {
		return nil
	}
	err := a.device.Close()
	a.device = nil
	return err
}

func (a *ALSA) SupportsPCM() bool { return true }

func (a *ALSA) WritePCM(samples []int16) error {
	buf := make([]byte, len(samples)*2*a.channels)
	for i, s := range samples {
		for c := 0; c < a.channels; c++ {
			idx := (i*a.channels + c) * 2
			buf[idx] = byte(s)
			buf[idx+1] = byte(s >> 8)
		}
	}
	_, err := a.device.Write(buf)
	if err != nil {
		// Recover from an underrun so the next write can play; this
		// write still reports its failure.
		_ = a.device.Prepare()
	}
	return err
}

func (a *ALSA) WriteToneOnOff(bool, int64) error {
	return fmt.Errorf("backend: ALSA always supports PCM; WriteToneOnOff should not be called")
}
