package message

import (
	"sort"

	"github.com/ugorji/go/codec"
)

type decodeFunc func(h *codec.JsonHandle, line []byte) (Payload, error)

// Protocol is the closed set of payload kinds a node understands.
type Protocol struct {
	name  string
	kinds map[string]decodeFunc
}

// NewProtocol returns a Protocol containing the base kinds init, init_ok and
// error.
func NewProtocol(name string) *Protocol {
	p := &Protocol{
		name:  name,
		kinds: make(map[string]decodeFunc),
	}

	Register[Init](p)
	Register[InitOk](p)
	Register[Error](p)

	return p
}

// Register adds the payload kind P to the protocol. The tag is taken from the
// zero value of P. Registering a tag twice replaces the earlier decoder.
func Register[P Payload](p *Protocol) *Protocol {
	var zero P

	p.kinds[zero.Type()] = func(h *codec.JsonHandle, line []byte) (Payload, error) {
		var wire struct {
			Body P `codec:"body"`
		}

		if err := codec.NewDecoderBytes(line, h).Decode(&wire); err != nil {
			return nil, err
		}

		return wire.Body, nil
	}

	return p
}

// Name returns the name of the protocol.
func (p *Protocol) Name() string {
	return p.name
}

// Has reports whether tag is a kind of this protocol.
func (p *Protocol) Has(tag string) bool {
	_, ok := p.kinds[tag]
	return ok
}

// Types returns the registered tags in lexical order.
func (p *Protocol) Types() []string {
	res := make([]string, 0, len(p.kinds))
	for t := range p.kinds {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}
