package hwio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/openmorse/gocw/key"
)

// GPIOPaddles drives an Iambic keyer from two gpiocdev input lines: one per
// paddle, active-low by default (a closed paddle pulls the line to ground),
// matching how doismellburning-samoyed/src/ptt.go treats its GPIO inputs as
// "more positive output corresponds to 1 unless invert is set."
//
// Grounded on ptt.go's export/init lifecycle for GPIO lines, replacing its
// sysfs export/value-file polling with gpiocdev's chip/line request and
// edge-event API.
type GPIOPaddles struct {
	chip     *gpiocdev.Chip
	dotLine  *gpiocdev.Line
	dashLine *gpiocdev.Line
	keyer    PaddleNotifier
	invert   bool

	mu  sync.Mutex
	dot key.PaddleValue
	dsh key.PaddleValue
}

// NewGPIOPaddles opens chipName (e.g. "gpiochip0") and requests dotOffset
// and dashOffset as both-edge inputs (no debounce period is configured).
// invert should be true when
// the paddle wiring pulls the line low on closure (the common case for a
// switch to ground with an internal pull-up). keyer is notified once
// immediately, with both paddles' current values, and again on every edge.
func NewGPIOPaddles(chipName string, dotOffset, dashOffset int, invert bool, keyer PaddleNotifier) (*GPIOPaddles, error) {
	if keyer == nil {
		return nil, fmt.Errorf("hwio: NewGPIOPaddles requires a non-nil keyer")
	}

	p := &GPIOPaddles{keyer: keyer, invert: invert}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("gocw-iambic"))
	if err != nil {
		return nil, fmt.Errorf("hwio: open %s: %w", chipName, err)
	}
	p.chip = chip

	dotLine, err := chip.RequestLine(dotOffset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(p.handleDotEdge),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("hwio: request dot paddle line %d: %w", dotOffset, err)
	}
	p.dotLine = dotLine

	dashLine, err := chip.RequestLine(dashOffset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(p.handleDashEdge),
	)
	if err != nil {
		dotLine.Close()
		chip.Close()
		return nil, fmt.Errorf("hwio: request dash paddle line %d: %w", dashOffset, err)
	}
	p.dashLine = dashLine

	dotVal, err := dotLine.Value()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("hwio: read initial dot paddle value: %w", err)
	}
	dashVal, err := dashLine.Value()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("hwio: read initial dash paddle value: %w", err)
	}

	p.mu.Lock()
	p.dot = p.levelToPaddle(dotVal)
	p.dsh = p.levelToPaddle(dashVal)
	dot, dsh := p.dot, p.dsh
	p.mu.Unlock()

	if err := keyer.NotifyPaddleEvent(dot, dsh); err != nil {
		p.Close()
		return nil, fmt.Errorf("hwio: seed initial paddle state: %w", err)
	}
	return p, nil
}

func (p *GPIOPaddles) levelToPaddle(level int) key.PaddleValue {
	return levelToPaddle(level, p.invert)
}

// levelToPaddle maps a raw gpiocdev line level (0 or 1) to a paddle value,
// honoring invert. Free function so it can be unit-tested without a chip.
func levelToPaddle(level int, invert bool) key.PaddleValue {
	closed := level != 0
	if invert {
		closed = !closed
	}
	if closed {
		return key.Closed
	}
	return key.Open
}

// edgeToPaddle maps a gpiocdev edge-event type to the paddle value it
// produces, honoring invert. Free function so it can be unit-tested
// without a chip.
func edgeToPaddle(evtType gpiocdev.LineEventType, invert bool) key.PaddleValue {
	closed := evtType == gpiocdev.LineEventFallingEdge
	if invert {
		closed = evtType == gpiocdev.LineEventRisingEdge
	}
	if closed {
		return key.Closed
	}
	return key.Open
}

func (p *GPIOPaddles) handleDotEdge(evt gpiocdev.LineEvent) {
	p.mu.Lock()
	p.dot = edgeToPaddle(evt.Type, p.invert)
	dot, dsh := p.dot, p.dsh
	p.mu.Unlock()
	_ = p.keyer.NotifyPaddleEvent(dot, dsh)
}

func (p *GPIOPaddles) handleDashEdge(evt gpiocdev.LineEvent) {
	p.mu.Lock()
	p.dsh = edgeToPaddle(evt.Type, p.invert)
	dot, dsh := p.dot, p.dsh
	p.mu.Unlock()
	_ = p.keyer.NotifyPaddleEvent(dot, dsh)
}

// Close releases both GPIO lines and the chip handle.
func (p *GPIOPaddles) Close() error {
	var firstErr error
	if p.dotLine != nil {
		if err := p.dotLine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.dashLine != nil {
		if err := p.dashLine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
