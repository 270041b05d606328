package counter

import (
	"strconv"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/peers"
	"github.com/sirupsen/logrus"
)

// GossipTick is the injected event that triggers a round of anti-entropy.
const GossipTick node.Injected = 1

// DefaultGossipInterval is the default time between two rounds of
// anti-entropy. It matches the broadcast workload.
const DefaultGossipInterval = 300 * time.Millisecond

// Config holds the tunables of the counter.
type Config struct {
	// GossipInterval is the time between two re-sends of the whole vector.
	GossipInterval time.Duration
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		GossipInterval: DefaultGossipInterval,
	}
}

// Node is the state machine of a grow-only counter. Every node only ever
// increments its own slot of the vector and adopts the point-wise maximum of
// the vectors it receives, so the sum never decreases.
type Node struct {
	self    int
	cluster *peers.Cluster

	// contributions is indexed by the position of a node in the cluster.
	contributions map[int]uint64

	logger *logrus.Entry
}

// New returns a counter at zero.
func New(cluster *peers.Cluster, logger *logrus.Entry) *Node {
	return &Node{
		self:          cluster.SelfIndex(),
		cluster:       cluster,
		contributions: make(map[int]uint64, cluster.Len()),
		logger:        logger.WithField("component", "counter"),
	}
}

// NewFactory returns a node.Factory that builds the counter and starts its
// anti-entropy ticker.
func NewFactory(conf Config) node.Factory {
	return func(init message.Init, cluster *peers.Cluster, inj node.Injector, logger *logrus.Entry) (node.Handler, error) {
		c := New(cluster, logger)

		if err := inj.Every(conf.GossipInterval, GossipTick); err != nil {
			return nil, err
		}

		return c, nil
	}
}

// Step implements node.Handler.
func (c *Node) Step(ev node.Event, out node.Output) error {
	switch e := ev.(type) {
	case node.NetworkEvent:
		return c.handle(e.Msg, out)
	case node.InjectedEvent:
		if e.Kind == GossipTick && len(c.contributions) > 0 {
			return c.gossip(out)
		}
	case node.EndOfInput:
		c.logger.WithField("value", c.Value()).Debug("Done")
	}

	return nil
}

func (c *Node) handle(msg message.Message, out node.Output) error {
	switch p := msg.Body.Payload.(type) {
	case Add:
		c.contributions[c.self] += p.Delta

		if err := out.Reply(msg, AddOk{}); err != nil {
			return err
		}

		if p.Delta == 0 {
			return nil
		}

		return c.gossip(out)

	case Read:
		return out.Reply(msg, ReadOk{Value: c.Value()})

	case Gossip:
		if !c.cluster.Contains(msg.Src) {
			return common.NewProtocolErr("Gossip", common.UnknownNode, msg.Src)
		}

		vec, err := c.parse(p.Vec)
		if err != nil {
			return err
		}

		c.merge(vec)

	case AddOk, ReadOk:
	}

	return nil
}

// gossip sends the whole vector to every other node.
func (c *Node) gossip(out node.Output) error {
	vec := c.Vec()

	for _, n := range c.cluster.Others() {
		if err := out.Send(n, Gossip{Vec: vec}); err != nil {
			return err
		}
	}

	return nil
}

func (c *Node) parse(vec map[string]uint64) (map[int]uint64, error) {
	res := make(map[int]uint64, len(vec))

	for k, v := range vec {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, common.NewProtocolErr("Gossip", common.MalformedMessage, k)
		}
		if i < 0 || i >= c.cluster.Len() {
			return nil, common.NewProtocolErr("Gossip", common.UnknownNode, k)
		}
		res[i] = v
	}

	return res, nil
}

func (c *Node) merge(vec map[int]uint64) {
	for i, v := range vec {
		if v > c.contributions[i] {
			c.contributions[i] = v
		}
	}
}

// Value returns the sum of every known contribution.
func (c *Node) Value() uint64 {
	var sum uint64
	for _, v := range c.contributions {
		sum += v
	}
	return sum
}

// Vec returns the contributions in their wire form.
func (c *Node) Vec() map[string]uint64 {
	res := make(map[string]uint64, len(c.contributions))
	for i, v := range c.contributions {
		res[strconv.Itoa(i)] = v
	}
	return res
}
