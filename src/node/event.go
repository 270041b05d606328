package node

import (
	"github.com/mosaicnetworks/glomers/src/message"
)

// Injected identifies an event produced inside the node rather than received
// from the network, such as a timer tick. Each state machine defines its own
// kinds.
type Injected uint32

// Event is one unit of work for the state machine. The set of events is
// closed: NetworkEvent, InjectedEvent, and EndOfInput.
type Event interface {
	isEvent()
}

// NetworkEvent carries a message decoded from the input stream.
type NetworkEvent struct {
	Msg message.Message
}

// InjectedEvent carries an event submitted by a background producer.
type InjectedEvent struct {
	Kind Injected
}

// EndOfInput is the last event of a stream. Err is nil when the input closed
// cleanly, and otherwise holds the read or decode failure that ended it.
type EndOfInput struct {
	Err error
}

func (NetworkEvent) isEvent() {}
func (InjectedEvent) isEvent() {}
func (EndOfInput) isEvent() {}

func eventKind(ev Event) string {
	switch ev.(type) {
	case NetworkEvent:
		return "network"
	case InjectedEvent:
		return "injected"
	case EndOfInput:
		return "eof"
	default:
		return "unknown"
	}
}
