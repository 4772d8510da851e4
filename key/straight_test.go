package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStraightGen struct {
	marks  int
	spaces int
}

func (f *fakeStraightGen) EnqueueBeginMark() error  { f.marks++; return nil }
func (f *fakeStraightGen) EnqueueBeginSpace() error { f.spaces++; return nil }

func TestStraightKeyTogglesCarrier(t *testing.T) {
	gen := &fakeStraightGen{}
	s := NewStraight(gen)

	require.NoError(t, s.SetValue(Closed))
	assert.Equal(t, 1, gen.marks)
	assert.Equal(t, Closed, s.Value())

	require.NoError(t, s.SetValue(Open))
	assert.Equal(t, 1, gen.spaces)
	assert.Equal(t, Open, s.Value())
}

func TestStraightKeyRepeatedValueIsNoOp(t *testing.T) {
	gen := &fakeStraightGen{}
	s := NewStraight(gen)

	require.NoError(t, s.SetValue(Closed))
	require.NoError(t, s.SetValue(Closed))
	assert.Equal(t, 1, gen.marks)
}

type fakeClock struct{ t int64 }

func (c *fakeClock) NowUs() int64 { return c.t }

type fakeReceiver struct {
	begins, ends []int64
}

func (r *fakeReceiver) MarkBegin(ts int64) error { r.begins = append(r.begins, ts); return nil }
func (r *fakeReceiver) MarkEnd(ts int64) error   { r.ends = append(r.ends, ts); return nil }

func TestStraightKeyNotifiesAttachedReceiver(t *testing.T) {
	gen := &fakeStraightGen{}
	s := NewStraight(gen)
	clk := &fakeClock{t: 100}
	rec := &fakeReceiver{}
	s.AttachReceiver(rec, clk)

	require.NoError(t, s.SetValue(Closed))
	clk.t = 250
	require.NoError(t, s.SetValue(Open))

	assert.Equal(t, []int64{100}, rec.begins)
	assert.Equal(t, []int64{250}, rec.ends)
}
