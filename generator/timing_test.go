package generator

import "testing"

// TestComputeTimingScenario12WPM reproduces spec.md §8's concrete example:
// at 12 WPM, weighting 50%, gap 0, a dot is 100ms, a dash 300ms, the extra
// end-of-character pad is 200ms and the extra end-of-word pad is 400ms.
func TestComputeTimingScenario12WPM(t *testing.T) {
	tm := computeTiming(12, 50, 0)

	if tm.unitUs != 100_000 {
		t.Fatalf("unitUs = %d, want 100000", tm.unitUs)
	}
	if tm.dotUs != 100_000 {
		t.Fatalf("dotUs = %d, want 100000", tm.dotUs)
	}
	if tm.dashUs != 300_000 {
		t.Fatalf("dashUs = %d, want 300000", tm.dashUs)
	}
	if tm.eocSpaceExtraUs != 200_000 {
		t.Fatalf("eocSpaceExtraUs = %d, want 200000", tm.eocSpaceExtraUs)
	}
	if tm.eowSpaceExtraUs != 400_000 {
		t.Fatalf("eowSpaceExtraUs = %d, want 400000", tm.eowSpaceExtraUs)
	}
}

// TestDashIsThreeDots holds at every speed/weighting, per spec.md §4.4.
func TestDashIsThreeDots(t *testing.T) {
	for _, speed := range []int{4, 12, 20, 60} {
		for _, weighting := range []int{20, 35, 50, 65, 80} {
			tm := computeTiming(speed, weighting, 0)
			if tm.dashUs != 3*tm.dotUs {
				t.Fatalf("speed=%d weighting=%d: dashUs=%d, want 3*dotUs=%d", speed, weighting, tm.dashUs, 3*tm.dotUs)
			}
		}
	}
}

// TestWeightingBalancedAtFifty checks the dot+dash == 4*unit invariant at
// the balanced weighting value, where the "dash = 3*dot" and "dot+dash =
// 4*unit" formulas from spec.md §8 coincide (see DESIGN.md's Open
// Questions: they are mutually consistent only at weighting == 50).
func TestWeightingBalancedAtFifty(t *testing.T) {
	tm := computeTiming(20, 50, 0)
	if got, want := tm.dotUs+tm.dashUs, 4*tm.unitUs; got != want {
		t.Fatalf("dot+dash = %d, want 4*unit = %d", got, want)
	}
}

func TestGapWidensInterCharacterSpace(t *testing.T) {
	base := computeTiming(20, 50, 0)
	widened := computeTiming(20, 50, 10)
	if widened.eocSpaceExtraUs <= base.eocSpaceExtraUs {
		t.Fatalf("gap=10 eocSpaceExtraUs (%d) should exceed gap=0 (%d)", widened.eocSpaceExtraUs, base.eocSpaceExtraUs)
	}
	if widened.eowSpaceExtraUs <= base.eowSpaceExtraUs {
		t.Fatalf("gap=10 eowSpaceExtraUs (%d) should exceed gap=0 (%d)", widened.eowSpaceExtraUs, base.eowSpaceExtraUs)
	}
}
