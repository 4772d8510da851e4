package receiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/openmorse/gocw/tone"
)

// unit12WPM is the calibration unit in microseconds at 12 WPM, the
// default speed New() starts at.
const unit12WPM = int64(tone.DotCalibrationMicrosecondsWPM / 12)

func TestReceiverClassifiesDotAndDash(t *testing.T) {
	r := New()
	u := unit12WPM

	require.NoError(t, r.AddMark(0, u)) // duration u: classifies as a Dot
	assert.Equal(t, InterMarkSpace, r.State())

	require.NoError(t, r.AddMark(2*u, 3*u)) // duration 3u: classifies as a Dash
	assert.Equal(t, InterMarkSpace, r.State())

	// markEnd is now 5u; poll 3u later, inside the inter-character-space
	// window (fixed mode, default 50% tolerance: [1.5u, 4.5u]).
	rep, err := r.PollRepresentation(8 * u)
	require.NoError(t, err)
	assert.Equal(t, ".-", rep.Marks)
	assert.False(t, rep.IsEndOfWord)
}

func TestReceiverPollRepresentationTooEarlyIsErrAgain(t *testing.T) {
	r := New()
	require.NoError(t, r.AddMark(0, unit12WPM))

	_, err := r.PollRepresentation(unit12WPM + 1)
	assert.ErrorIs(t, err, tone.ErrAgain)
}

func TestReceiverPollRepresentationAfterWordGapSignalsEndOfWord(t *testing.T) {
	r := New()
	require.NoError(t, r.AddMark(0, unit12WPM))

	ts := unit12WPM + 10*unit12WPM // far beyond the inter-character-space max
	rep, err := r.PollRepresentation(ts)
	require.NoError(t, err)
	assert.True(t, rep.IsEndOfWord)
	assert.Equal(t, ".", rep.Marks)
}

func TestReceiverPollCharacterTranslatesAndArmsWordSpace(t *testing.T) {
	r := New()
	u := unit12WPM
	require.NoError(t, r.AddMark(0, u))   // dot, markEnd = u
	require.NoError(t, r.AddMark(2*u, u)) // dot, markEnd = 3u; representation ".."

	// 2u after markEnd, inside the inter-character-space window.
	ch, isEOW, err := r.PollCharacter(5 * u)
	require.NoError(t, err)
	assert.Equal(t, byte('I'), ch)
	assert.False(t, isEOW)
	assert.True(t, r.IsPendingInterWordSpace())
}

func TestReceiverMarkEndWithoutMarkBeginIsRange(t *testing.T) {
	r := New()
	err := r.MarkEnd(100)
	assert.ErrorIs(t, err, tone.ErrRange)
}

func TestReceiverMarkBeginWhileInMarkIsRange(t *testing.T) {
	r := New()
	require.NoError(t, r.MarkBegin(0))
	err := r.MarkBegin(10)
	assert.ErrorIs(t, err, tone.ErrRange)
}

func TestReceiverNoiseSpikeIsRejectedAndStateRestored(t *testing.T) {
	r := New()
	require.NoError(t, r.SetNoiseSpikeThreshold(5000))

	require.NoError(t, r.MarkBegin(0))
	err := r.MarkEnd(2000) // 2ms, below the 5ms threshold: noise
	assert.ErrorIs(t, err, tone.ErrNoise)
	assert.Equal(t, Idle, r.State(), "no prior representation: noise drops back to IDLE")

	// The genuine mark that follows is unaffected by the rejected spike.
	require.NoError(t, r.MarkBegin(100000))
	require.NoError(t, r.MarkEnd(100000 + unit12WPM))
	assert.Equal(t, InterMarkSpace, r.State())
}

func TestReceiverNoiseSpikeMidCharacterReturnsToInterMarkSpace(t *testing.T) {
	r := New()
	require.NoError(t, r.SetNoiseSpikeThreshold(5000))
	require.NoError(t, r.AddMark(0, unit12WPM)) // one real dot recorded

	require.NoError(t, r.MarkBegin(10*unit12WPM))
	err := r.MarkEnd(10*unit12WPM + 1000) // noise
	assert.ErrorIs(t, err, tone.ErrNoise)
	assert.Equal(t, InterMarkSpace, r.State())

	rep, err := r.PollRepresentation(10*unit12WPM + 1000 + unit12WPM)
	require.NoError(t, err)
	assert.Equal(t, ".", rep.Marks, "the noise spike must not have been appended")
}

func TestReceiverUnclassifiableMarkSignalsBadMark(t *testing.T) {
	r := New()
	require.NoError(t, r.SetTolerance(10)) // narrow windows

	// A duration between the dot and dash windows at 10% tolerance.
	mid := unit12WPM + unit12WPM // ~2 units, outside both narrow bands
	require.NoError(t, r.MarkBegin(0))
	err := r.MarkEnd(mid)
	assert.ErrorIs(t, err, tone.ErrBadMark)
	state := r.State()
	assert.True(t, state == EOCGapErr || state == EOWGapErr)
}

func TestReceiverRepresentationOverflowSignalsNoMemory(t *testing.T) {
	r := New()
	ts := int64(0)
	var lastErr error
	for i := 0; i < RepresentationCapacity; i++ {
		lastErr = r.AddMark(ts, unit12WPM)
		ts += unit12WPM + unit12WPM
		if lastErr != nil {
			break
		}
	}
	assert.ErrorIs(t, lastErr, tone.ErrNoMemory)
	assert.Equal(t, EOCGapErr, r.State())
}

func TestReceiverSetSpeedWhileAdaptiveIsBusy(t *testing.T) {
	r := New()
	r.EnableAdaptiveMode()
	err := r.SetSpeed(20)
	assert.ErrorIs(t, err, tone.ErrBusy)
}

func TestReceiverAdaptiveModeTracksFasterSender(t *testing.T) {
	r := New() // seeds tracking near 12 WPM
	r.EnableAdaptiveMode()

	// Directly seed the moving averages as if four 30 WPM dots and dashes
	// had already been observed, and force a recompute: this isolates the
	// threshold/speed arithmetic from the window-convergence lag a live
	// AddMark sequence would introduce.
	r.mu.Lock()
	r.dotAvg.reset(40000)   // 30 WPM dot duration
	r.dashAvg.reset(120000) // 30 WPM dash duration
	r.recomputeAdaptiveSpeedLocked()
	got := r.speedWPM
	r.mu.Unlock()

	assert.InDelta(t, 30.0, got, 0.5)
}

func TestReceiverAdaptiveModeAppliesDotWindowAsSenderSpeeds(t *testing.T) {
	r := New()
	r.EnableAdaptiveMode()

	fastUnit := int64(tone.DotCalibrationMicrosecondsWPM / 30) // 30 WPM sender
	require.NoError(t, r.AddMark(0, fastUnit))
	assert.Equal(t, InterMarkSpace, r.State())
}

func TestReceiverResetStateClearsRepresentation(t *testing.T) {
	r := New()
	require.NoError(t, r.AddMark(0, unit12WPM))
	r.ResetState()
	assert.Equal(t, Idle, r.State())

	rep, err := r.PollRepresentation(0)
	assert.ErrorIs(t, err, tone.ErrRange)
	assert.Equal(t, "", rep.Marks)
}

func TestReceiverInvariantDotMaxBelowDashMinInAdaptiveMode(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.Float64Range(4, 60).Draw(rt, "speed")
		dotW, dashW, _, _ := computeWindows(speed, 50, 0, true)
		assert.LessOrEqual(rt, dotW.maxUs+1, dashW.minUs)
	})
}

func TestFixedWindowIsSymmetricAroundIdeal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ideal := rapid.Float64Range(1, 1_000_000).Draw(rt, "ideal")
		tol := rapid.Float64Range(0, 0.9).Draw(rt, "tol")
		w := fixedWindow(ideal, tol)
		assert.InDelta(rt, ideal, (w.minUs+w.maxUs)/2, 1e-6)
	})
}
