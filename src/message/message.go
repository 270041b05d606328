package message

// Payload is one kind of message body. Type returns the wire tag.
type Payload interface {
	Type() string
}

// validator is implemented by payloads with required fields.
type validator interface {
	Validate() error
}

// requirer is implemented by payloads whose required fields have a valid zero
// value, so that an absent field can only be told apart on the wire.
type requirer interface {
	Required() []string
}

// Body is the content of an envelope. ID is assigned by the sender from its own
// counter and InReplyTo correlates a reply with the ID of the request it
// answers.
type Body struct {
	ID        *uint64
	InReplyTo *uint64
	Payload   Payload
}

// Message is an envelope travelling from Src to Dest.
type Message struct {
	Src  string
	Dest string
	Body Body
}

// Type returns the tag of the payload, or the empty string if there is none.
func (m Message) Type() string {
	if m.Body.Payload == nil {
		return ""
	}
	return m.Body.Payload.Type()
}

// IntoReply returns an envelope addressed back to the sender of m, with a
// fresh id taken from ids and InReplyTo set to the id of m. The payload is
// copied from m and is expected to be overwritten by the caller. The id is
// consumed even if the reply is never sent.
func (m Message) IntoReply(ids *IDCounter) Message {
	var id *uint64
	if ids != nil {
		next := ids.Next()
		id = &next
	}

	return Message{
		Src:  m.Dest,
		Dest: m.Src,
		Body: Body{
			ID:        id,
			InReplyTo: m.Body.ID,
			Payload:   m.Body.Payload,
		},
	}
}

// IDCounter allocates message ids for one node. Ids start at 1 and are never
// reused. It is not safe for concurrent use; the runtime owns it.
type IDCounter struct {
	last uint64
}

// Next returns the next id.
func (c *IDCounter) Next() uint64 {
	c.last++
	return c.last
}

// Last returns the last id handed out, or 0.
func (c *IDCounter) Last() uint64 {
	return c.last
}

// ID is a helper to build the optional id fields of a Body.
func ID(id uint64) *uint64 {
	return &id
}
