package message

import (
	"github.com/mosaicnetworks/glomers/src/common"
)

// Base payload tags understood by every protocol.
const (
	InitType   = "init"
	InitOkType = "init_ok"
	ErrorType  = "error"
)

// Init is the first message a node receives. It names the node and the
// complete, fixed membership of the cluster.
type Init struct {
	NodeID  string   `codec:"node_id"`
	NodeIDs []string `codec:"node_ids"`
}

// Type implements Payload.
func (Init) Type() string { return InitType }

// Validate checks that the node is named and belongs to the cluster.
func (i Init) Validate() error {
	if i.NodeID == "" {
		return common.NewProtocolErr("Init", common.MissingField, "node_id")
	}
	for _, id := range i.NodeIDs {
		if id == i.NodeID {
			return nil
		}
	}
	return common.NewProtocolErr("Init", common.UnknownNode, i.NodeID)
}

// InitOk acknowledges Init.
type InitOk struct{}

// Type implements Payload.
func (InitOk) Type() string { return InitOkType }

// Error is the generic error reply of the protocol. Nodes never send it
// themselves, and receiving one is a no-op.
type Error struct {
	Code int    `codec:"code"`
	Text string `codec:"text,omitempty"`
}

// Type implements Payload.
func (Error) Type() string { return ErrorType }
