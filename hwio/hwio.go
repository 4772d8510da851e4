// Package hwio adapts the key and generator packages' small interfaces to
// real hardware: GPIO paddles and straight keys, a serial port's
// handshake line read as a straight-key contact, and a Hamlib-controlled
// rig's PTT line. None of it is required to exercise the C4/C5 state
// machines (tests drive those directly); it exists so a client can wire
// this library to an actual keyer or transceiver without writing its own
// GPIO/serial/Hamlib glue.
//
// Grounded in doismellburning-samoyed/src/ptt.go's GPIO/serial/Hamlib PTT
// lifecycle (export/init/set/term) and src/serial_port.go's handshake-line
// polling, translated from direwolf's sysfs/cgo-Hamlib approach to the
// pure-Go bindings SPEC_FULL.md names for this concern.
package hwio

import "github.com/openmorse/gocw/key"

// StraightSetter is the slice of *key.Straight a hardware contact sensor
// needs: enough to report an Open/Closed transition.
type StraightSetter interface {
	SetValue(v key.PaddleValue) error
}

// PaddleNotifier is the slice of *key.Iambic a hardware paddle pair needs.
type PaddleNotifier interface {
	NotifyPaddleEvent(dot, dash key.PaddleValue) error
}
