package backend

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OSS ioctl request codes and format bits from <sys/soundcard.h>, used
// directly since golang.org/x/sys/unix does not define OSS-specific
// constants (only the generic ioctl helpers). Grounded on audio.go's
// commented-out set_oss_params: SNDCTL_DSP_SPEED, SNDCTL_DSP_CHANNELS,
// SNDCTL_DSP_SETFMT.
const (
	sndctlDSPSpeed    = 0xC0045002
	sndctlDSPChannels = 0xC0045006
	sndctlDSPSetFmt   = 0xC0045005

	afmtS16LE = 0x00000010
)

// OSS drives /dev/dsp directly, rendering PCM when the device is
// reachable at all (every /dev/dsp device that accepts 16-bit samples
// can play an arbitrary waveform, unlike Console's fixed-pitch relay).
type OSS struct {
	device string
	file   *os.File
}

func NewOSS(device string) *OSS {
	if device == "" {
		device = "/dev/dsp"
	}
	return &OSS{device: device}
}

func (o *OSS) Probe(device string) error {
	f, err := os.OpenFile(device, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("backend: probe OSS device %s: %w", device, err)
	}
	return f.Close()
}

func (o *OSS) Open(sampleRateHint int) (int, error) {
	f, err := os.OpenFile(o.device, os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("backend: open OSS device %s: %w", o.device, err)
	}
	fd := int(f.Fd())

	channels := 1
	if err := unix.IoctlSetInt(fd, sndctlDSPChannels, channels); err != nil {
		f.Close()
		return 0, fmt.Errorf("backend: SNDCTL_DSP_CHANNELS: %w", err)
	}
	format := afmtS16LE
	if err := unix.IoctlSetInt(fd, sndctlDSPSetFmt, format); err != nil {
		f.Close()
		return 0, fmt.Errorf("backend: SNDCTL_DSP_SETFMT: %w", err)
	}

	rate, err := negotiateSampleRate(sampleRateHint, func(r int) bool {
		return unix.IoctlSetInt(fd, sndctlDSPSpeed, r) == nil
	})
	if err != nil {
		f.Close()
		return 0, err
	}

	o.file = f
	return rate, nil
}

func (o *OSS) Close() error {
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}

func (o *OSS) SupportsPCM() bool { return true }

func (o *OSS) WritePCM(samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[2*i] = byte(s)
		buf[2*i+1] = byte(s >> 8)
	}
	_, err := o.file.Write(buf)
	return err
}

func (o *OSS) WriteToneOnOff(on bool, durationUs int64) error {
	return fmt.Errorf("backend: OSS always supports PCM; WriteToneOnOff should not be called")
}
