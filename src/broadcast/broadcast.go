package broadcast

import (
	"math/rand"
	"sort"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/peers"
	"github.com/mosaicnetworks/glomers/src/telemetry"
	"github.com/sirupsen/logrus"
)

// GossipTick is the injected event that triggers a round of gossip.
const GossipTick node.Injected = 1

// Default values of Config.
const (
	DefaultGossipInterval = 300 * time.Millisecond
	DefaultRedundancy     = 0.10
)

// Config holds the tunables of the gossip state machine.
type Config struct {
	// GossipInterval is the time between two rounds of gossip.
	GossipInterval time.Duration

	// Redundancy caps the number of values a neighbor already knows that are
	// added to a gossip message, as a fraction of the values it does not know.
	Redundancy float64

	// Rand picks the redundant values. Nil means a time-seeded source.
	Rand *rand.Rand
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		GossipInterval: DefaultGossipInterval,
		Redundancy:     DefaultRedundancy,
	}
}

// Node is the state machine of the broadcast workload. It accumulates every
// value it learns and periodically tells each neighbor the values it believes
// that neighbor is missing.
type Node struct {
	self    string
	cluster *peers.Cluster

	// messages only grows.
	messages map[int]struct{}

	// neighborhood is set by the topology message.
	neighborhood []string

	// known[n] approximates what n knows. It is only fed by gossip received
	// from n, and only grows.
	known map[string]map[int]struct{}

	redundancy float64
	rnd        *rand.Rand

	logger *logrus.Entry
}

// New returns an empty state machine for the given cluster.
func New(cluster *peers.Cluster, conf Config, logger *logrus.Entry) *Node {
	rnd := conf.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	known := make(map[string]map[int]struct{}, cluster.Len())
	for _, id := range cluster.IDs() {
		known[id] = make(map[int]struct{})
	}

	return &Node{
		self:       cluster.Self,
		cluster:    cluster,
		messages:   make(map[int]struct{}),
		known:      known,
		redundancy: conf.Redundancy,
		rnd:        rnd,
		logger:     logger.WithField("component", "broadcast"),
	}
}

// NewFactory returns a node.Factory that builds the state machine and starts
// its gossip ticker.
func NewFactory(conf Config) node.Factory {
	return func(init message.Init, cluster *peers.Cluster, inj node.Injector, logger *logrus.Entry) (node.Handler, error) {
		b := New(cluster, conf, logger)

		if err := inj.Every(conf.GossipInterval, GossipTick); err != nil {
			return nil, err
		}

		return b, nil
	}
}

// Step implements node.Handler.
func (b *Node) Step(ev node.Event, out node.Output) error {
	switch e := ev.(type) {
	case node.NetworkEvent:
		return b.handle(e.Msg, out)
	case node.InjectedEvent:
		if e.Kind == GossipTick {
			return b.gossip(out)
		}
	case node.EndOfInput:
		b.logger.WithField("messages", len(b.messages)).Debug("Done")
	}

	return nil
}

func (b *Node) handle(msg message.Message, out node.Output) error {
	switch p := msg.Body.Payload.(type) {
	case Broadcast:
		b.messages[p.Message] = struct{}{}
		return out.Reply(msg, BroadcastOk{})

	case Read:
		return out.Reply(msg, ReadOk{Messages: b.Messages()})

	case Topology:
		neighbors, ok := p.Topology[b.self]
		if !ok {
			return common.NewProtocolErr("Topology", common.MissingTopology, b.self)
		}

		neighborhood := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			if !b.cluster.Contains(n) {
				return common.NewProtocolErr("Topology", common.UnknownNode, n)
			}
			if n != b.self {
				neighborhood = append(neighborhood, n)
			}
		}
		b.neighborhood = neighborhood

		b.logger.WithField("neighborhood", neighborhood).Debug("Topology")

		return out.Reply(msg, TopologyOk{})

	case Gossip:
		known, ok := b.known[msg.Src]
		if !ok {
			return common.NewProtocolErr("Gossip", common.UnknownNode, msg.Src)
		}

		for _, m := range p.Seen {
			known[m] = struct{}{}
			b.messages[m] = struct{}{}
		}

	case BroadcastOk, ReadOk, TopologyOk, GossipOk:
	}

	return nil
}

// gossip sends every neighbor the values it does not know about, plus a few
// it does, so that the neighbor learns what we know and stops resending it.
func (b *Node) gossip(out node.Output) error {
	for _, n := range b.neighborhood {
		seen, redundant := b.gossipFor(n)
		if seen == nil {
			continue
		}

		telemetry.GossipValues.WithLabelValues("new").Add(float64(len(seen) - redundant))
		telemetry.GossipValues.WithLabelValues("redundant").Add(float64(redundant))

		b.logger.WithFields(logrus.Fields{
			"to":        n,
			"values":    len(seen),
			"redundant": redundant,
			"known":     len(b.messages),
		}).Debug("Gossip")

		if err := out.Send(n, Gossip{Seen: seen}); err != nil {
			return err
		}
	}

	return nil
}

// gossipFor computes the content of the next gossip to n, in ascending order,
// and how many of those values n is already believed to know. It returns nil
// when n is not missing anything.
func (b *Node) gossipFor(n string) ([]int, int) {
	known := b.known[n]

	var notKnown, alreadyKnown []int
	for m := range b.messages {
		if _, ok := known[m]; ok {
			alreadyKnown = append(alreadyKnown, m)
		} else {
			notKnown = append(notKnown, m)
		}
	}

	if len(notKnown) == 0 {
		return nil, 0
	}

	limit := int(b.redundancy * float64(len(notKnown)))
	if limit > len(alreadyKnown) {
		limit = len(alreadyKnown)
	}

	seen := notKnown
	if limit > 0 {
		// map iteration order is random but not uniform; sort before sampling
		sort.Ints(alreadyKnown)
		for i := 0; i < limit; i++ {
			j := i + b.rnd.Intn(len(alreadyKnown)-i)
			alreadyKnown[i], alreadyKnown[j] = alreadyKnown[j], alreadyKnown[i]
		}
		seen = append(seen, alreadyKnown[:limit]...)
	}

	sort.Ints(seen)

	return seen, limit
}

// Messages returns every known value in ascending order.
func (b *Node) Messages() []int {
	res := make([]int, 0, len(b.messages))
	for m := range b.messages {
		res = append(res, m)
	}
	sort.Ints(res)
	return res
}

// Neighborhood returns the neighbors assigned by the topology.
func (b *Node) Neighborhood() []string {
	return b.neighborhood
}

// Known returns the values n is believed to know, in ascending order.
func (b *Node) Known(n string) []int {
	res := make([]int, 0, len(b.known[n]))
	for m := range b.known[n] {
		res = append(res, m)
	}
	sort.Ints(res)
	return res
}
