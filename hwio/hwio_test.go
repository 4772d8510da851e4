package hwio

import (
	"fmt"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev"
	"github.com/xylo04/goHamlib"
	"golang.org/x/sys/unix"

	"github.com/openmorse/gocw/key"
)

func TestLevelToPaddle(t *testing.T) {
	assert.Equal(t, key.Open, levelToPaddle(0, false))
	assert.Equal(t, key.Closed, levelToPaddle(1, false))
	assert.Equal(t, key.Closed, levelToPaddle(0, true))
	assert.Equal(t, key.Open, levelToPaddle(1, true))
}

func TestEdgeToPaddle(t *testing.T) {
	assert.Equal(t, key.Closed, edgeToPaddle(gpiocdev.LineEventFallingEdge, false))
	assert.Equal(t, key.Open, edgeToPaddle(gpiocdev.LineEventRisingEdge, false))
	assert.Equal(t, key.Open, edgeToPaddle(gpiocdev.LineEventFallingEdge, true))
	assert.Equal(t, key.Closed, edgeToPaddle(gpiocdev.LineEventRisingEdge, true))
}

func TestLineActive(t *testing.T) {
	assert.True(t, lineActive(unix.TIOCM_CTS, LineCTS, false))
	assert.False(t, lineActive(0, LineCTS, false))
	assert.False(t, lineActive(unix.TIOCM_CTS, LineCTS, true))
	assert.True(t, lineActive(unix.TIOCM_DSR, LineDSR, false))
	assert.False(t, lineActive(unix.TIOCM_CTS, LineDSR, false), "DSR line ignores the CTS bit")
}

// mockPaddleNotifier records every paddle pair it is notified of, the way
// ptt_test.go's mockGPIODLine records values without hardware.
type mockPaddleNotifier struct {
	calls [][2]key.PaddleValue
}

func (m *mockPaddleNotifier) NotifyPaddleEvent(dot, dash key.PaddleValue) error {
	m.calls = append(m.calls, [2]key.PaddleValue{dot, dash})
	return nil
}

func TestGPIOPaddlesRejectsNilKeyer(t *testing.T) {
	_, err := NewGPIOPaddles("gpiochip0", 0, 1, false, nil)
	require.Error(t, err)
}

// TestGPIOPaddlesEdgeHandlersNotifyBothPaddles exercises the edge handlers
// directly against a struct literal, avoiding the real gpiocdev chip that
// NewGPIOPaddles would otherwise require.
func TestGPIOPaddlesEdgeHandlersNotifyBothPaddles(t *testing.T) {
	mock := &mockPaddleNotifier{}
	p := &GPIOPaddles{keyer: mock, dot: key.Open, dsh: key.Open}

	p.handleDotEdge(gpiocdev.LineEvent{Type: gpiocdev.LineEventFallingEdge})
	p.handleDashEdge(gpiocdev.LineEvent{Type: gpiocdev.LineEventFallingEdge})
	p.handleDotEdge(gpiocdev.LineEvent{Type: gpiocdev.LineEventRisingEdge})

	require.Len(t, mock.calls, 3)
	assert.Equal(t, [2]key.PaddleValue{key.Closed, key.Open}, mock.calls[0])
	assert.Equal(t, [2]key.PaddleValue{key.Closed, key.Closed}, mock.calls[1])
	assert.Equal(t, [2]key.PaddleValue{key.Open, key.Closed}, mock.calls[2])
}

// mockStraightSetter records every value it is set to.
type mockStraightSetter struct {
	values []key.PaddleValue
}

func (m *mockStraightSetter) SetValue(v key.PaddleValue) error {
	m.values = append(m.values, v)
	return nil
}

func TestGPIOStraightKeyRejectsNilKey(t *testing.T) {
	_, err := NewGPIOStraightKey("gpiochip0", 0, false, nil)
	require.Error(t, err)
}

// TestGPIOStraightKeyEdgeHandlerSetsValue exercises the same edge-handler
// logic NewGPIOStraightKey wires into gpiocdev.WithEventHandler, without
// needing a real chip.
func TestGPIOStraightKeyEdgeHandlerSetsValue(t *testing.T) {
	mock := &mockStraightSetter{}
	invert := false
	handler := func(evt gpiocdev.LineEvent) {
		_ = mock.SetValue(edgeToPaddle(evt.Type, invert))
	}

	handler(gpiocdev.LineEvent{Type: gpiocdev.LineEventFallingEdge})
	handler(gpiocdev.LineEvent{Type: gpiocdev.LineEventRisingEdge})

	require.Equal(t, []key.PaddleValue{key.Closed, key.Open}, mock.values)
}

func TestSerialStraightKeyRejectsNilKey(t *testing.T) {
	_, err := NewSerialStraightKey("/dev/null", 9600, LineCTS, 0, false, nil)
	require.Error(t, err)
}

// TestSerialStraightKeyOpensAndPollsOverPTY exercises the open/poll/close
// lifecycle against a real pseudo-terminal, the same device kisspt_open_pt
// in doismellburning-samoyed/src/kiss.go creates for its KISS-over-PTY
// mode — standing in for a USB-serial adapter no CI machine has attached.
// A PTY has no modem-control lines to assert, so TIOCMGET's bits are not
// expected to move; TestLineActive covers the CTS/DSR decode logic that
// readLine applies to whatever TIOCMGET returns.
func TestSerialStraightKeyOpensAndPollsOverPTY(t *testing.T) {
	ptmx, pts, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer pts.Close()

	mock := &mockStraightSetter{}
	sk, err := NewSerialStraightKey(pts.Name(), 0, LineCTS, 5*time.Millisecond, false, mock)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sk.Close())
}

// fakeRig is a hardware-free rigHandle double, the same pattern
// ptt_test.go's mockGPIODLine uses for direwolf's gpiod_line slot.
type fakeRig struct {
	conf      map[string]string
	opened    bool
	closed    bool
	pttStates []goHamlib.PTT
	openErr   error
}

func newFakeRig() *fakeRig {
	return &fakeRig{conf: map[string]string{}}
}

func (r *fakeRig) SetConf(name, value string) error {
	r.conf[name] = value
	return nil
}

func (r *fakeRig) Open() error {
	if r.openErr != nil {
		return r.openErr
	}
	r.opened = true
	return nil
}

func (r *fakeRig) Close() error {
	r.closed = true
	return nil
}

func (r *fakeRig) SetPTT(vfo goHamlib.VFO, ptt goHamlib.PTT) error {
	r.pttStates = append(r.pttStates, ptt)
	return nil
}

func TestHamlibTransmitterKeysOnAndOff(t *testing.T) {
	r := newFakeRig()

	tx, err := newHamlibTransmitter(r, "/dev/rig0")
	require.NoError(t, err)

	require.Equal(t, "/dev/rig0", r.conf["rig_pathname"])
	require.True(t, r.opened)
	require.Len(t, r.pttStates, 1, "constructor keys PTT off once")

	require.NoError(t, tx.Key(true))
	require.NoError(t, tx.Key(false))

	require.Len(t, r.pttStates, 3)
	assert.Equal(t, goHamlib.RigPttOff, r.pttStates[0])
	assert.Equal(t, goHamlib.RigPttOn, r.pttStates[1])
	assert.Equal(t, goHamlib.RigPttOff, r.pttStates[2])

	require.NoError(t, tx.Close())
	assert.True(t, r.closed)
	assert.Equal(t, goHamlib.RigPttOff, r.pttStates[len(r.pttStates)-1])
}

func TestHamlibTransmitterOpenFailure(t *testing.T) {
	r := newFakeRig()
	r.openErr = fmt.Errorf("port busy")

	_, err := newHamlibTransmitter(r, "/dev/rig0")
	require.Error(t, err)
}
