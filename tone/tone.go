package tone

// SlopeMode selects which edges of a Tone are shaped with an envelope
// rather than switching the carrier on/off abruptly.
type SlopeMode int

const (
	// SlopeNone renders both edges as an abrupt on/off transition
	// (rectangular shape, or a tone whose neighbours already supplied
	// the shaping on that edge).
	SlopeNone SlopeMode = iota
	// SlopeRisingOnly shapes only the leading edge.
	SlopeRisingOnly
	// SlopeFallingOnly shapes only the trailing edge.
	SlopeFallingOnly
	// SlopeStandard shapes both edges. This is the default for an
	// isolated tone.
	SlopeStandard
)

// Shape selects the envelope curve applied across a slope's samples.
type Shape int

const (
	// ShapeRaisedCosine is the default: amplitude follows (1-cos(x))/2.
	ShapeRaisedCosine Shape = iota
	ShapeLinear
	ShapeSine
	// ShapeRectangular applies no shaping at all (instant on/off).
	ShapeRectangular
)

// Bit-exact constants from the external interface (spec.md §6).
const (
	// DotCalibrationMicrosecondsWPM is the "PARIS" calibration constant:
	// unit (µs) = DotCalibrationMicrosecondsWPM / speedWPM.
	DotCalibrationMicrosecondsWPM = 1_200_000

	MinSpeedWPM     = 4
	MaxSpeedWPM     = 60
	InitSpeedWPM    = 12
	MinFrequencyHz  = 0
	MaxFrequencyHz  = 4000
	InitFrequencyHz = 800
	MinVolumePct    = 0
	MaxVolumePct    = 100
	InitVolumePct   = 70
	MinGapUnits     = 0
	MaxGapUnits     = 60
	InitGapUnits    = 0
	MinWeightingPct = 20
	MaxWeightingPct = 80
	InitWeightingPct = 50
	MinTolerancePct = 0
	MaxTolerancePct = 90
	InitTolerancePct = 50

	InitNoiseSpikeThresholdUs = 10000

	DefaultSlopeShape        = ShapeRaisedCosine
	DefaultSlopeDurationUs   = 5000
	CapacityMax              = 3000
)

// PreferredSampleRatesDescending lists sound-card sample rates in the order
// spec.md §6 phrases the default-rate search: the first of
// {48000,44100,32000,22050,16000,11025,8000} the device accepts.
var PreferredSampleRatesDescending = []int{48000, 44100, 32000, 22050, 16000, 11025, 8000}

// Tone is the atomic unit carried by the tone queue: a span of carrier (or
// silence, for Frequency == 0) of a given duration, with its slope mode
// and character-boundary flag.
type Tone struct {
	FrequencyHz int     // 0 = silence.
	DurationUs  int64   // microseconds, >= 0.
	Forever     bool    // last tone in the stream; dequeue keeps returning it.
	SlopeMode   SlopeMode

	// Sample-domain fields. No enqueue primitive fills them in; the
	// generator's render loop derives sample counts from DurationUs and
	// the sample rate itself.
	NSamples             int
	NSamplesRisingSlope  int
	NSamplesFallingSlope int

	// IsFirst marks the first tone of a character, so RemoveLastCharacter
	// can locate character boundaries.
	IsFirst bool
}

// Validate reports ErrInvalid if the tone's frequency or duration are out
// of the legal range. Duration == 0 is accepted (see DESIGN.md's Open
// Question resolution): it is a degenerate, silent, zero-sample tone.
func (t Tone) Validate() error {
	if t.FrequencyHz < MinFrequencyHz || t.FrequencyHz > MaxFrequencyHz {
		return ErrInvalid
	}
	if t.DurationUs < 0 {
		return ErrInvalid
	}
	return nil
}
