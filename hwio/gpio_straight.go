package hwio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOStraightKey drives a key.Straight from a single gpiocdev input line,
// the straight-key analog of GPIOPaddles. Grounded the same way, on
// ptt.go's GPIO input handling (get_input_real).
type GPIOStraightKey struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	key  StraightSetter
}

// NewGPIOStraightKey opens chipName and requests offset as a both-edge
// input (no debounce period is configured) driving sk's value. invert is true when the contact
// pulls the line low on closure.
func NewGPIOStraightKey(chipName string, offset int, invert bool, sk StraightSetter) (*GPIOStraightKey, error) {
	if sk == nil {
		return nil, fmt.Errorf("hwio: NewGPIOStraightKey requires a non-nil key")
	}

	g := &GPIOStraightKey{key: sk}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("gocw-straight-key"))
	if err != nil {
		return nil, fmt.Errorf("hwio: open %s: %w", chipName, err)
	}
	g.chip = chip

	handler := func(evt gpiocdev.LineEvent) {
		_ = sk.SetValue(edgeToPaddle(evt.Type, invert))
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(handler))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("hwio: request straight key line %d: %w", offset, err)
	}
	g.line = line

	level, err := line.Value()
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("hwio: read initial straight key value: %w", err)
	}
	if err := sk.SetValue(levelToPaddle(level, invert)); err != nil {
		g.Close()
		return nil, fmt.Errorf("hwio: seed initial straight key state: %w", err)
	}
	return g, nil
}

// Close releases the GPIO line and chip handle.
func (g *GPIOStraightKey) Close() error {
	var firstErr error
	if g.line != nil {
		if err := g.line.Close(); err != nil {
			firstErr = err
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
