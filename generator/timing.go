package generator

import "github.com/openmorse/gocw/tone"

// timing holds the derived, microsecond-precision durations computed from
// the current speed/weighting/gap parameters. The inter-character/
// inter-word padding amounts follow spec.md §4.4's "Additional inter-character-space"/"Adjustment space
// inside a word" formulas, reconciled against spec.md §8's concrete
// 12 WPM scenario.
type timing struct {
	unitUs int64

	dotUs  int64
	dashUs int64

	// interMarkSpaceUs is sent after every mark (dot or dash).
	interMarkSpaceUs int64

	// eocSpaceExtraUs is what EnqueueEOCSpace appends on top of the
	// trailing inter-mark-space to reach the full 3-unit (scaled by
	// 1+gap) inter-character space.
	eocSpaceExtraUs int64

	// eowSpaceExtraUs is what EnqueueEOWSpace appends on top of an
	// already-sent EOC pad to reach the full 7-unit (scaled) inter-word
	// space.
	eowSpaceExtraUs int64
}

func computeTiming(speedWPM, weightingPct, gapUnits int) timing {
	unit := int64(tone.DotCalibrationMicrosecondsWPM) / int64(speedWPM)

	delta := (2 * int64(weightingPct-50) * unit) / 100
	dot := unit + delta
	dash := 3 * dot

	gapExtraICS := 3 * int64(gapUnits) * unit
	eocExtra := 2*unit + gapExtraICS
	wordAdjust := 7 * gapExtraICS / 3
	eowExtra := 4*unit + (wordAdjust - gapExtraICS)

	return timing{
		unitUs:           unit,
		dotUs:            dot,
		dashUs:           dash,
		interMarkSpaceUs: unit,
		eocSpaceExtraUs:  eocExtra,
		eowSpaceExtraUs:  eowExtra,
	}
}
