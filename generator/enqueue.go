package generator

import (
	"github.com/openmorse/gocw/dictionary"
	"github.com/openmorse/gocw/tone"
)

func markDuration(tm timing, kind Mark) int64 {
	if kind == Dash {
		return tm.dashUs
	}
	return tm.dotUs
}

// EnqueueBeginMark starts an indefinite mark at the current frequency,
// used by a straight key to hold the carrier on until a later
// EnqueueBeginSpace or Flush replaces it. Its rising edge is shaped;
// since its end is not yet known it carries no falling edge of its own,
// and the render loop cuts it off without a fade when it is superseded.
func (g *Generator) EnqueueBeginMark() error {
	g.resync()
	t := tone.Tone{
		FrequencyHz: g.currentFrequency(),
		DurationUs:  defaultChunkDurationUs,
		Forever:     true,
		SlopeMode:   tone.SlopeRisingOnly,
		IsFirst:     true,
	}
	return g.queue.Enqueue(t)
}

// EnqueueBeginSpace starts an indefinite silence, used by a straight key
// on release.
func (g *Generator) EnqueueBeginSpace() error {
	g.resync()
	t := tone.Tone{
		FrequencyHz: 0,
		DurationUs:  defaultChunkDurationUs,
		Forever:     true,
		SlopeMode:   tone.SlopeNone,
	}
	return g.queue.Enqueue(t)
}

// EnqueueSymbolNoIMS enqueues a single dot or dash with both edges shaped,
// but does not follow it with an inter-mark-space. The iambic keyer uses
// this to drive its own per-element timing and decide separately (via its
// own state machine ticks) when to enqueue the following space.
func (g *Generator) EnqueueSymbolNoIMS(kind Mark, isFirst bool) error {
	tm := g.resync()
	t := tone.Tone{
		FrequencyHz: g.currentFrequency(),
		DurationUs:  markDuration(tm, kind),
		SlopeMode:   tone.SlopeStandard,
		IsFirst:     isFirst,
	}
	return g.queue.Enqueue(t)
}

// EnqueueInterMarkSpace enqueues the one-unit silence that separates the
// elements of a single character.
func (g *Generator) EnqueueInterMarkSpace() error {
	tm := g.resync()
	t := tone.Tone{FrequencyHz: 0, DurationUs: tm.interMarkSpaceUs, SlopeMode: tone.SlopeNone}
	return g.queue.Enqueue(t)
}

// EnqueueMark enqueues a dot or dash followed immediately by its
// inter-mark-space. This is the primitive enqueue_representation uses to
// expand a Dot/Dash string; the iambic keyer instead drives
// EnqueueSymbolNoIMS/EnqueueInterMarkSpace tick by tick.
func (g *Generator) EnqueueMark(kind Mark, isFirst bool) error {
	if err := g.EnqueueSymbolNoIMS(kind, isFirst); err != nil {
		return err
	}
	return g.EnqueueInterMarkSpace()
}

// EnqueueEOCSpace pads the queue, on top of the inter-mark-space already
// sent after the last element, up to a full end-of-character gap.
func (g *Generator) EnqueueEOCSpace() error {
	tm := g.resync()
	if tm.eocSpaceExtraUs == 0 {
		return nil
	}
	t := tone.Tone{FrequencyHz: 0, DurationUs: tm.eocSpaceExtraUs, SlopeMode: tone.SlopeNone}
	return g.queue.Enqueue(t)
}

// EnqueueEOWSpace pads the queue, on top of an already-sent end-of-
// character gap, up to a full end-of-word gap.
func (g *Generator) EnqueueEOWSpace() error {
	tm := g.resync()
	if tm.eowSpaceExtraUs == 0 {
		return nil
	}
	t := tone.Tone{FrequencyHz: 0, DurationUs: tm.eowSpaceExtraUs, SlopeMode: tone.SlopeNone}
	return g.queue.Enqueue(t)
}

// EnqueueRepresentationNoICS expands a Dot/Dash string (e.g. "-.-.") into
// marks and inter-mark-spaces, without an end-of-character pad.
func (g *Generator) EnqueueRepresentationNoICS(rep string, isFirst bool) error {
	if !dictionary.RepresentationIsValid(rep) {
		return tone.ErrInvalid
	}
	for i, r := range []byte(rep) {
		kind := Dot
		if r == '-' {
			kind = Dash
		}
		if err := g.EnqueueMark(kind, isFirst && i == 0); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueRepresentation expands rep and appends an end-of-character pad.
func (g *Generator) EnqueueRepresentation(rep string, isFirst bool) error {
	if err := g.EnqueueRepresentationNoICS(rep, isFirst); err != nil {
		return err
	}
	return g.EnqueueEOCSpace()
}

// EnqueueCharacterNoICS looks ch up in the dictionary and enqueues its
// representation without an end-of-character pad.
func (g *Generator) EnqueueCharacterNoICS(ch byte) error {
	rep, err := dictionary.CharacterToRepresentation(ch)
	if err != nil {
		return err
	}
	return g.EnqueueRepresentationNoICS(rep, true)
}

// EnqueueCharacter looks ch up in the dictionary, enqueues its
// representation, and pads a trailing end-of-character gap.
func (g *Generator) EnqueueCharacter(ch byte) error {
	rep, err := dictionary.CharacterToRepresentation(ch)
	if err != nil {
		return err
	}
	return g.EnqueueRepresentation(rep, true)
}

// EnqueueString enqueues each character of s in turn; an ASCII space
// stacks an extra end-of-word pad on top of the end-of-character gap the
// preceding character already sent.
func (g *Generator) EnqueueString(s string) error {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ' ' {
			if err := g.EnqueueEOWSpace(); err != nil {
				return err
			}
			continue
		}
		if err := g.EnqueueCharacter(ch); err != nil {
			return err
		}
	}
	return nil
}
