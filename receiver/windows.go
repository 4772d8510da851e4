package receiver

import (
	"math"

	"github.com/openmorse/gocw/tone"
)

// window is a classification band: a duration in [minUs, maxUs] is
// assigned this window's kind; idealUs is kept for statistics (the
// "delta from ideal" recorded per spec.md §8).
type window struct {
	minUs, idealUs, maxUs float64
}

func (w window) contains(durationUs int64) bool {
	d := float64(durationUs)
	return d >= w.minUs && d <= w.maxUs
}

// computeWindows derives the four classification windows from the
// current parameters, following spec.md §4.6.
//
// Fixed mode: each window is ideal ± ideal*tolerancePct/100.
//
// Adaptive mode: windows are fixed multiples of the current dot_ideal
// rather than tolerance bands, so a sudden speed change is absorbed
// within a couple of marks instead of requiring the operator to reset
// tolerance. A 1us no-man's-land separates the Dot and Dash windows so a
// duration never satisfies both (spec.md §9's "dot_duration_max + 1 <=
// dash_duration_min" invariant).
func computeWindows(speedWPM float64, tolerancePct, gapUnits int, adaptive bool) (dotW, dashW, imsW, icsW window) {
	unit := float64(tone.DotCalibrationMicrosecondsWPM) / speedWPM
	dotIdeal := unit
	dashIdeal := 3 * unit
	imsIdeal := unit
	icsIdeal := 3*unit + 3*float64(gapUnits)*unit

	if !adaptive {
		tol := float64(tolerancePct) / 100
		dotW = fixedWindow(dotIdeal, tol)
		dashW = fixedWindow(dashIdeal, tol)
		imsW = fixedWindow(imsIdeal, tol)
		icsW = fixedWindow(icsIdeal, tol)
		return
	}

	dotMax := 2 * dotIdeal
	dotW = window{minUs: 0, idealUs: dotIdeal, maxUs: dotMax}
	dashW = window{minUs: dotMax + 1, idealUs: dashIdeal, maxUs: math.Inf(1)}
	imsW = window{minUs: 0, idealUs: imsIdeal, maxUs: dotMax}
	icsW = window{minUs: dotMax, idealUs: icsIdeal, maxUs: 5 * dotIdeal}
	return
}

func fixedWindow(ideal, tol float64) window {
	return window{minUs: ideal * (1 - tol), idealUs: ideal, maxUs: ideal * (1 + tol)}
}
