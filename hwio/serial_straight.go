package hwio

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"

	"github.com/openmorse/gocw/key"
)

// SerialStraightKeyLine selects which serial modem-status line carries the
// key contact, the same choice doismellburning-samoyed/src/ptt.go offers
// for its RTS/DTR *output* lines (PTT_LINE_RTS / PTT_LINE_DTR), mirrored
// here for an *input* line read with a straight key.
type SerialStraightKeyLine int

const (
	// LineCTS reads Clear To Send.
	LineCTS SerialStraightKeyLine = iota
	// LineDSR reads Data Set Ready.
	LineDSR
)

// SerialStraightKey polls a serial port's handshake line (CTS or DSR) and
// reports its on/off transitions to a key.Straight, for a key wired to pull
// that line active on closure — a common hookup for a straight key plugged
// into a USB-serial adapter with no dedicated GPIO available.
//
// Grounded on serial_port.go's term.Open/SetSpeed lifecycle and ptt.go's
// RTS_ON/RTS_OFF TIOCMGET/TIOCMSET pattern, read here instead of written.
type SerialStraightKey struct {
	t      *term.Term
	line   SerialStraightKeyLine
	key    StraightSetter
	invert bool

	pollEvery time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewSerialStraightKey opens device at baud and starts polling line every
// pollEvery (a few milliseconds is typical; the CW timing the resulting
// key values feed is on the order of tens of milliseconds per dot at
// speed, so coarser polling will clip short elements). invert is true when
// the contact pulls the line inactive on closure.
func NewSerialStraightKey(device string, baud int, line SerialStraightKeyLine, pollEvery time.Duration, invert bool, sk StraightSetter) (*SerialStraightKey, error) {
	if sk == nil {
		return nil, fmt.Errorf("hwio: NewSerialStraightKey requires a non-nil key")
	}
	if pollEvery <= 0 {
		pollEvery = 2 * time.Millisecond
	}

	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("hwio: open serial port %s: %w", device, err)
	}
	if baud != 0 {
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("hwio: set speed %d on %s: %w", baud, device, err)
		}
	}

	s := &SerialStraightKey{
		t:         t,
		line:      line,
		key:       sk,
		invert:    invert,
		pollEvery: pollEvery,
		done:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.pollLoop()
	return s, nil
}

func (s *SerialStraightKey) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	var last key.PaddleValue = key.Open
	first := true

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			active, err := s.readLine()
			if err != nil {
				continue
			}
			v := key.Open
			if active {
				v = key.Closed
			}
			if first || v != last {
				_ = s.key.SetValue(v)
				last = v
				first = false
			}
		}
	}
}

func (s *SerialStraightKey) readLine() (bool, error) {
	bits, err := unix.IoctlGetInt(int(s.t.Fd()), unix.TIOCMGET)
	if err != nil {
		return false, err
	}
	return lineActive(bits, s.line, s.invert), nil
}

// lineActive decodes a TIOCMGET bitmask for the selected line, honoring
// invert. Free function so it can be unit-tested without a serial port.
func lineActive(bits int, line SerialStraightKeyLine, invert bool) bool {
	var mask int
	switch line {
	case LineCTS:
		mask = unix.TIOCM_CTS
	case LineDSR:
		mask = unix.TIOCM_DSR
	}

	active := bits&mask != 0
	if invert {
		active = !active
	}
	return active
}

// Close stops the polling goroutine and closes the serial port.
func (s *SerialStraightKey) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.t.Close()
}
