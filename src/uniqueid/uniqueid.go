// Package uniqueid implements the unique-ID workload. A node mints ids of the
// form "{node id}-{counter}" without talking to the rest of the cluster: node
// ids are unique and each node never reuses a counter value.
package uniqueid

import (
	"strconv"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/peers"
	"github.com/sirupsen/logrus"
)

// Generate asks for a new id.
type Generate struct{}

// GenerateOk answers Generate.
type GenerateOk struct {
	ID string `codec:"id"`
}

func (Generate) Type() string { return "generate" }
func (GenerateOk) Type() string { return "generate_ok" }

// Protocol returns the message kinds of the unique-ID workload.
func Protocol() *message.Protocol {
	p := message.NewProtocol("unique-ids")
	message.Register[Generate](p)
	message.Register[GenerateOk](p)
	return p
}

// Node mints ids.
type Node struct {
	self string
	last uint64

	logger *logrus.Entry
}

// New returns a generator for node self.
func New(self string, logger *logrus.Entry) *Node {
	return &Node{
		self:   self,
		logger: logger.WithField("component", "uniqueid"),
	}
}

// Factory is the node.Factory of the workload.
func Factory(init message.Init, cluster *peers.Cluster, inj node.Injector, logger *logrus.Entry) (node.Handler, error) {
	return New(cluster.Self, logger), nil
}

// Step implements node.Handler.
func (u *Node) Step(ev node.Event, out node.Output) error {
	switch e := ev.(type) {
	case node.NetworkEvent:
		if _, ok := e.Msg.Body.Payload.(Generate); ok {
			return out.Reply(e.Msg, GenerateOk{ID: u.Next()})
		}
	case node.EndOfInput:
		u.logger.WithField("generated", u.last).Debug("Done")
	}

	return nil
}

// Next returns a fresh id.
func (u *Node) Next() string {
	u.last++
	return u.self + "-" + strconv.FormatUint(u.last, 10)
}
