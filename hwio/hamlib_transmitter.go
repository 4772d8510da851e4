package hwio

import (
	"fmt"

	"github.com/xylo04/goHamlib"
)

// rigHandle is the slice of *goHamlib.Rig HamlibTransmitter depends on,
// extracted so a test can substitute a fake rig without Hamlib hardware —
// the same pattern ptt_test.go's mockGPIODLine uses for direwolf's
// gpiod_line slot.
type rigHandle interface {
	SetConf(name, value string) error
	Open() error
	Close() error
	SetPTT(vfo goHamlib.VFO, ptt goHamlib.PTT) error
}

// HamlibTransmitter satisfies generator.Transmitter by keying a rig's PTT
// line through Hamlib rig control, the pure-Go-bound equivalent of
// doismellburning-samoyed/src/ptt.go's PTT_METHOD_HAMLIB branch (disabled
// there pending a cgo-to-Go port of rig_init/rig_open/rig_set_ptt/
// rig_close/rig_cleanup — this module carries that port through, since
// SPEC_FULL.md names Hamlib rig-keyed PTT as a first-class transmitter).
type HamlibTransmitter struct {
	rig rigHandle
}

// NewHamlibTransmitter opens a rig of the given Hamlib model number at
// device (a serial port path, or host:port for network-controlled rigs;
// model -1 asks Hamlib to probe and guess, mirroring ptt_init's AUTO
// option). The rig is left keyed off.
func NewHamlibTransmitter(model int, device string) (*HamlibTransmitter, error) {
	r := goHamlib.NewRig(goHamlib.RigModel(model))
	if r == nil {
		return nil, fmt.Errorf("hwio: unknown Hamlib rig model %d", model)
	}
	return newHamlibTransmitter(r, device)
}

func newHamlibTransmitter(r rigHandle, device string) (*HamlibTransmitter, error) {
	if err := r.SetConf("rig_pathname", device); err != nil {
		return nil, fmt.Errorf("hwio: configure rig path %s: %w", device, err)
	}

	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("hwio: open rig at %s: %w", device, err)
	}

	tx := &HamlibTransmitter{rig: r}
	if err := tx.Key(false); err != nil {
		r.Close()
		return nil, fmt.Errorf("hwio: set initial PTT off: %w", err)
	}
	return tx, nil
}

// Key turns the rig's PTT on or off. Satisfies generator.Transmitter.
func (h *HamlibTransmitter) Key(on bool) error {
	state := goHamlib.RigPttOff
	if on {
		state = goHamlib.RigPttOn
	}
	if err := h.rig.SetPTT(goHamlib.RigVFOCurr, state); err != nil {
		return fmt.Errorf("hwio: set PTT %v: %w", on, err)
	}
	return nil
}

// Close releases the rig handle, keying PTT off first.
func (h *HamlibTransmitter) Close() error {
	_ = h.Key(false)
	return h.rig.Close()
}
