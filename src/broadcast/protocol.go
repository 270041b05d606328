package broadcast

import (
	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
)

// Broadcast asks a node to store and propagate a value.
type Broadcast struct {
	Message int `codec:"message"`
}

// BroadcastOk acknowledges Broadcast.
type BroadcastOk struct{}

// Read asks for every value a node knows.
type Read struct{}

// ReadOk answers Read.
type ReadOk struct {
	Messages []int `codec:"messages"`
}

// Topology assigns neighbors to every node.
type Topology struct {
	Topology map[string][]string `codec:"topology"`
}

// TopologyOk acknowledges Topology.
type TopologyOk struct{}

// Gossip carries values from one node to a neighbor. It is not acknowledged.
type Gossip struct {
	Seen []int `codec:"seen"`
}

// GossipOk is part of the protocol but never sent; receiving it is a no-op.
type GossipOk struct {
	Seen []int `codec:"seen"`
}

func (Broadcast) Type() string { return "broadcast" }
func (BroadcastOk) Type() string { return "broadcast_ok" }
func (Read) Type() string { return "read" }
func (ReadOk) Type() string { return "read_ok" }
func (Topology) Type() string { return "topology" }
func (TopologyOk) Type() string { return "topology_ok" }
func (Gossip) Type() string { return "gossip" }
func (GossipOk) Type() string { return "gossip_ok" }

// Required implements the required fields check of the codec.
func (Broadcast) Required() []string { return []string{"message"} }

// Validate ...
func (g Gossip) Validate() error {
	if g.Seen == nil {
		return common.NewProtocolErr("Gossip", common.MissingField, "seen")
	}
	return nil
}

// Validate ...
func (t Topology) Validate() error {
	if t.Topology == nil {
		return common.NewProtocolErr("Topology", common.MissingField, "topology")
	}
	return nil
}

// Protocol returns the payload kinds of the broadcast workload.
func Protocol() *message.Protocol {
	p := message.NewProtocol("broadcast")
	message.Register[Broadcast](p)
	message.Register[BroadcastOk](p)
	message.Register[Read](p)
	message.Register[ReadOk](p)
	message.Register[Topology](p)
	message.Register[TopologyOk](p)
	message.Register[Gossip](p)
	message.Register[GossipOk](p)
	return p
}
