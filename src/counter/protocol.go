package counter

import (
	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
)

// Add asks a node to increase the counter by Delta.
type Add struct {
	Delta uint64 `codec:"delta"`
}

// AddOk acknowledges Add.
type AddOk struct{}

// Read asks for the current value of the counter.
type Read struct{}

// ReadOk answers Read.
type ReadOk struct {
	Value uint64 `codec:"value"`
}

// Gossip carries the contributions a node knows about, keyed by the decimal
// index of the contributing node in the cluster.
type Gossip struct {
	Vec map[string]uint64 `codec:"vec"`
}

func (Add) Type() string { return "add" }
func (AddOk) Type() string { return "add_ok" }
func (Read) Type() string { return "read" }
func (ReadOk) Type() string { return "read_ok" }
func (Gossip) Type() string { return "gossip" }

// Required implements the required fields check of the codec.
func (Add) Required() []string { return []string{"delta"} }

// Validate ...
func (g Gossip) Validate() error {
	if g.Vec == nil {
		return common.NewProtocolErr("Gossip", common.MissingField, "vec")
	}
	return nil
}

// Protocol returns the message kinds of the grow-only counter workload.
func Protocol() *message.Protocol {
	p := message.NewProtocol("g-counter")
	message.Register[Add](p)
	message.Register[AddOk](p)
	message.Register[Read](p)
	message.Register[ReadOk](p)
	message.Register[Gossip](p)
	return p
}
