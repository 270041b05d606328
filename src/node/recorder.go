package node

import (
	"github.com/mosaicnetworks/glomers/src/message"
)

// Recorder is an Output that keeps every envelope in memory instead of
// writing it. It lets state machines be stepped directly in tests.
type Recorder struct {
	self string
	ids  message.IDCounter
	Sent []message.Message
}

// NewRecorder returns a Recorder for node self.
func NewRecorder(self string) *Recorder {
	return &Recorder{self: self}
}

// Self implements Output.
func (r *Recorder) Self() string {
	return r.self
}

// Send implements Output.
func (r *Recorder) Send(dest string, payload message.Payload) error {
	r.Sent = append(r.Sent, message.Message{
		Src:  r.self,
		Dest: dest,
		Body: message.Body{Payload: payload},
	})
	return nil
}

// Reply implements Output.
func (r *Recorder) Reply(req message.Message, payload message.Payload) error {
	reply := req.IntoReply(&r.ids)
	reply.Body.Payload = payload
	r.Sent = append(r.Sent, reply)
	return nil
}

// Take returns the recorded envelopes and forgets them.
func (r *Recorder) Take() []message.Message {
	res := r.Sent
	r.Sent = nil
	return res
}
