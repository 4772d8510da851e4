// Package key implements the two Key variants of spec.md §4.5: a
// straight-key single-cell state holder, and the 9-state iambic-keyer
// graph that drives Curtis 8044 mode A and B. Both feed symbols into a
// generator.Generator; neither owns the other, per spec.md §3's "weak
// reference" lifecycle note.
//
// Grounded on doismellburning-samoyed/src/ptt.go's attach/detach-before-
// delete discipline for the non-owning generator back-reference; the
// iambic state graph itself has no analog anywhere in the retrieved pack
// (no example repo implements an iambic keyer) and is built directly from
// spec.md §4.5's state table.
package key

// PaddleValue is shared by the straight key's single contact and the
// iambic keyer's two paddles.
type PaddleValue bool

const (
	Open   PaddleValue = false
	Closed PaddleValue = true
)

// Receiver is the optional collaborator a Key notifies of its own
// mark/space transitions (spec.md §3's "optional receiver reference"),
// letting a receiver.Receiver track a physically-keyed signal's timing
// the same way it would track one observed over a radio link. Satisfied
// by *receiver.Receiver.
type Receiver interface {
	MarkBegin(tsUs int64) error
	MarkEnd(tsUs int64) error
}

// Clock supplies the timestamp used for Receiver notifications — the
// "optional external timer reference" in spec.md §3. Production code
// wires a monotonic microsecond clock; tests supply a fake.
type Clock interface {
	NowUs() int64
}

func notifyMarkBegin(r Receiver, c Clock) {
	if r == nil || c == nil {
		return
	}
	_ = r.MarkBegin(c.NowUs())
}

func notifyMarkEnd(r Receiver, c Clock) {
	if r == nil || c == nil {
		return
	}
	_ = r.MarkEnd(c.NowUs())
}
