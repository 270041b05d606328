package node

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Output is what a state machine can do with the outside world during a step.
type Output interface {
	// Self returns the id of this node.
	Self() string

	// Send writes a fire-and-forget message to dest. It carries no msg_id.
	Send(dest string, payload message.Payload) error

	// Reply answers req with payload. The reply gets a fresh msg_id and
	// in_reply_to set to the msg_id of req.
	Reply(req message.Message, payload message.Payload) error
}

// Writer is the Output of the runtime. Every envelope becomes exactly one
// line, flushed immediately. Only the runtime goroutine writes, so no locking
// is needed.
type Writer struct {
	self  string
	codec *message.Codec
	w     *bufio.Writer
	ids   message.IDCounter
	sent  uint64

	logger *logrus.Entry
}

// NewWriter returns a Writer for node self.
func NewWriter(self string, c *message.Codec, w io.Writer, logger *logrus.Entry) *Writer {
	return &Writer{
		self:   self,
		codec:  c,
		w:      bufio.NewWriter(w),
		logger: logger,
	}
}

// Self implements Output.
func (w *Writer) Self() string {
	return w.self
}

// Send implements Output.
func (w *Writer) Send(dest string, payload message.Payload) error {
	return w.Write(message.Message{
		Src:  w.self,
		Dest: dest,
		Body: message.Body{Payload: payload},
	})
}

// Reply implements Output.
func (w *Writer) Reply(req message.Message, payload message.Payload) error {
	reply := req.IntoReply(&w.ids)
	reply.Body.Payload = payload
	return w.Write(reply)
}

// Write serializes m on its own line.
func (w *Writer) Write(m message.Message) error {
	line, err := w.codec.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s to %s: %w", m.Type(), m.Dest, err)
	}

	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("write %s to %s: %w", m.Type(), m.Dest, err)
	}

	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush %s to %s: %w", m.Type(), m.Dest, err)
	}

	atomic.AddUint64(&w.sent, 1)
	telemetry.MessagesSent.WithLabelValues(m.Type()).Inc()

	w.logger.WithFields(logrus.Fields{
		"dest": m.Dest,
		"type": m.Type(),
	}).Debug("Sent")

	return nil
}

// Sent returns the number of envelopes written so far.
func (w *Writer) Sent() uint64 {
	return atomic.LoadUint64(&w.sent)
}
