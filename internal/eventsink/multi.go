package eventsink

// MultiSink fans an event out to every configured channel. A channel
// panicking or blocking is not this type's concern — channels are
// expected to be self-contained and non-blocking, per the Sink contract.
type MultiSink struct {
	channels []Sink
}

func NewMultiSink(channels ...Sink) *MultiSink {
	return &MultiSink{channels: channels}
}

func (m *MultiSink) Emit(e Event) {
	for _, ch := range m.channels {
		ch.Emit(e)
	}
}
