package backend

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// kiocsoundTickBase is the PC speaker's reference clock, per
// linux/kd.h: KIOCSOUND's argument is kiocsoundTickBase/frequencyHz,
// not the frequency itself.
const kiocsoundTickBase = 1193180

// Console drives the legacy PC speaker (or a /dev/ttyN virtual console)
// through the KIOCSOUND ioctl, grounded on ptt.go's
// unix.IoctlGetInt/IoctlSetInt use for TIOCMGET/TIOCMSET against a
// serial line, adapted here to a different ioctl on a console device.
// KIOCSOUND itself is a plain on/off relay at whatever frequency was
// requested at construction: the generator.Backend contract only passes
// a boolean to WriteToneOnOff, so a Console's pitch is fixed for its
// lifetime rather than following the CW frequency parameter tone by
// tone (see DESIGN.md).
type Console struct {
	device      string
	frequencyHz int
	fd          int
}

// NewConsole returns a Console for device (e.g. "/dev/tty0" or
// "/dev/console"), which Open opens; it beeps at frequencyHz for every
// "on" tone.
func NewConsole(device string, frequencyHz int) *Console {
	return &Console{device: device, frequencyHz: frequencyHz, fd: -1}
}

func (c *Console) Probe(device string) error {
	f, err := os.OpenFile(device, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("backend: probe console %s: %w", device, err)
	}
	return f.Close()
}

func (c *Console) Open(sampleRateHint int) (int, error) {
	f, err := os.OpenFile(c.device, os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("backend: open console %s: %w", c.device, err)
	}
	c.fd = int(f.Fd())
	// Console has no notion of a sample rate; echo the hint back so the
	// generator's derived timing (which does not depend on sampleRate
	// for non-PCM backends) has something non-zero to hold.
	return sampleRateHint, nil
}

func (c *Console) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := c.silence()
	cerr := unix.Close(c.fd)
	c.fd = -1
	if err != nil {
		return err
	}
	return cerr
}

func (c *Console) SupportsPCM() bool { return false }

func (c *Console) WritePCM([]int16) error {
	return fmt.Errorf("backend: console does not support PCM output")
}

func (c *Console) WriteToneOnOff(on bool, durationUs int64) error {
	if on {
		if err := c.sound(c.frequencyHz); err != nil {
			return err
		}
	} else {
		if err := c.silence(); err != nil {
			return err
		}
	}
	sleepMicroseconds(durationUs)
	return nil
}

func (c *Console) sound(hz int) error {
	if hz <= 0 {
		return c.silence()
	}
	return unix.IoctlSetInt(c.fd, unix.KIOCSOUND, kiocsoundTickBase/hz)
}

func (c *Console) silence() error {
	return unix.IoctlSetInt(c.fd, unix.KIOCSOUND, 0)
}
