package backend

import "time"

// Null discards every write after sleeping out the real time it would
// have taken, so callers that don't care about audio (tests, headless
// CI, an operator running a receiver with no local sidetone) still get
// correctly paced enqueue/dequeue timing.
type Null struct {
	sampleRate int
}

func NewNull() *Null { return &Null{} }

func (n *Null) Probe(string) error { return nil }

func (n *Null) Open(sampleRateHint int) (int, error) {
	rate, err := negotiateSampleRate(sampleRateHint, func(int) bool { return true })
	if err != nil {
		return 0, err
	}
	n.sampleRate = rate
	return rate, nil
}

func (n *Null) Close() error { return nil }

func (n *Null) SupportsPCM() bool { return true }

func (n *Null) WritePCM(samples []int16) error {
	time.Sleep(time.Duration(len(samples)) * time.Second / time.Duration(n.sampleRate))
	return nil
}

func (n *Null) WriteToneOnOff(_ bool, durationUs int64) error {
	time.Sleep(time.Duration(durationUs) * time.Microsecond)
	return nil
}
