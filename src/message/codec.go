package message

import (
	"fmt"
	"reflect"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/ugorji/go/codec"
)

// Header is the part of an envelope that can be read without knowing the
// protocol.
type Header struct {
	Src       string
	Dest      string
	Type      string
	ID        *uint64
	InReplyTo *uint64
}

type wireHeader struct {
	Src  string `codec:"src"`
	Dest string `codec:"dest"`
	Body struct {
		Type      string  `codec:"type"`
		MsgID     *uint64 `codec:"msg_id"`
		InReplyTo *uint64 `codec:"in_reply_to"`
	} `codec:"body"`
}

type wireMessage struct {
	Src  string                 `codec:"src"`
	Dest string                 `codec:"dest"`
	Body map[string]interface{} `codec:"body"`
}

// Codec encodes and decodes envelopes of one Protocol. It holds no state
// besides its configuration and may be shared.
type Codec struct {
	protocol *Protocol
	handle   *codec.JsonHandle
}

// NewCodec returns a Codec for the given protocol.
func NewCodec(p *Protocol) *Codec {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	jh.MapType = reflect.TypeOf(map[string]interface{}(nil))

	return &Codec{
		protocol: p,
		handle:   jh,
	}
}

// Protocol returns the protocol of the codec.
func (c *Codec) Protocol() *Protocol {
	return c.protocol
}

// Header decodes the routing fields of a line.
func (c *Codec) Header(line []byte) (Header, error) {
	var w wireHeader

	if err := codec.NewDecoderBytes(line, c.handle).Decode(&w); err != nil {
		return Header{}, fmt.Errorf("%w: %v", common.NewProtocolErr("Envelope", common.MalformedMessage, string(line)), err)
	}

	switch {
	case w.Src == "":
		return Header{}, common.NewProtocolErr("Envelope", common.MissingField, "src")
	case w.Dest == "":
		return Header{}, common.NewProtocolErr("Envelope", common.MissingField, "dest")
	case w.Body.Type == "":
		return Header{}, common.NewProtocolErr("Body", common.MissingField, "type")
	}

	return Header{
		Src:       w.Src,
		Dest:      w.Dest,
		Type:      w.Body.Type,
		ID:        w.Body.MsgID,
		InReplyTo: w.Body.InReplyTo,
	}, nil
}

// Decode parses one line into a Message. Lines that are not JSON, miss a
// required field, or carry a payload tag outside the protocol are rejected
// with a common.ProtocolErr.
func (c *Codec) Decode(line []byte) (Message, error) {
	h, err := c.Header(line)
	if err != nil {
		return Message{}, err
	}

	decode, ok := c.protocol.kinds[h.Type]
	if !ok {
		return Message{}, common.NewProtocolErr(c.protocol.name, common.UnknownType, h.Type)
	}

	payload, err := decode(c.handle, line)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", common.NewProtocolErr(h.Type, common.MalformedMessage, string(line)), err)
	}

	if r, ok := payload.(requirer); ok {
		if err := c.checkRequired(h.Type, line, r.Required()); err != nil {
			return Message{}, err
		}
	}

	if v, ok := payload.(validator); ok {
		if err := v.Validate(); err != nil {
			return Message{}, err
		}
	}

	return Message{
		Src:  h.Src,
		Dest: h.Dest,
		Body: Body{
			ID:        h.ID,
			InReplyTo: h.InReplyTo,
			Payload:   payload,
		},
	}, nil
}

// checkRequired fails when one of fields is absent or null in the body of
// line.
func (c *Codec) checkRequired(tag string, line []byte, fields []string) error {
	var w struct {
		Body map[string]interface{} `codec:"body"`
	}

	if err := codec.NewDecoderBytes(line, c.handle).Decode(&w); err != nil {
		return fmt.Errorf("%w: %v", common.NewProtocolErr(tag, common.MalformedMessage, string(line)), err)
	}

	for _, f := range fields {
		if v, ok := w.Body[f]; !ok || v == nil {
			return common.NewProtocolErr(tag, common.MissingField, f)
		}
	}

	return nil
}

// Encode serializes m to a single JSON object without a trailing newline.
func (c *Codec) Encode(m Message) ([]byte, error) {
	if m.Body.Payload == nil {
		return nil, fmt.Errorf("encode %s -> %s: no payload", m.Src, m.Dest)
	}

	var raw []byte
	if err := codec.NewEncoderBytes(&raw, c.handle).Encode(m.Body.Payload); err != nil {
		return nil, err
	}

	body := make(map[string]interface{})
	if err := codec.NewDecoderBytes(raw, c.handle).Decode(&body); err != nil {
		return nil, err
	}

	body["type"] = m.Body.Payload.Type()
	if m.Body.ID != nil {
		body["msg_id"] = *m.Body.ID
	}
	if m.Body.InReplyTo != nil {
		body["in_reply_to"] = *m.Body.InReplyTo
	}

	var out []byte
	w := wireMessage{
		Src:  m.Src,
		Dest: m.Dest,
		Body: body,
	}
	if err := codec.NewEncoderBytes(&out, c.handle).Encode(&w); err != nil {
		return nil, err
	}

	return out, nil
}
