package buildpipeline

// Sink consumes state transitions of one attempt.
type Sink interface {
	OnState(State)
}

// ChannelSink forwards states into a channel.
type ChannelSink struct {
	Ch chan<- State
}

func (s ChannelSink) OnState(st State) {
	if s.Ch == nil {
		return
	}
	s.Ch <- st
}

// FuncSink adapts a function to Sink.
type FuncSink func(State)

func (f FuncSink) OnState(st State) {
	if f != nil {
		f(st)
	}
}
