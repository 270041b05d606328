package glomers

import (
	"github.com/mosaicnetworks/glomers/src/broadcast"
	"github.com/mosaicnetworks/glomers/src/config"
	"github.com/mosaicnetworks/glomers/src/counter"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/uniqueid"
)

// Workload is one of the problems a node can solve: the messages it speaks and
// the state machine answering them.
type Workload struct {
	Name     string
	Protocol func() *message.Protocol
	Factory  func(conf *config.Config) node.Factory
}

// Broadcast spreads values through the cluster with anti-entropy gossip.
var Broadcast = Workload{
	Name:     "broadcast",
	Protocol: broadcast.Protocol,
	Factory: func(conf *config.Config) node.Factory {
		return broadcast.NewFactory(conf.BroadcastConfig())
	},
}

// GCounter is a grow-only counter replicated on every node.
var GCounter = Workload{
	Name:     "g-counter",
	Protocol: counter.Protocol,
	Factory: func(conf *config.Config) node.Factory {
		return counter.NewFactory(conf.CounterConfig())
	},
}

// UniqueIDs hands out cluster-wide unique ids.
var UniqueIDs = Workload{
	Name:     "unique-ids",
	Protocol: uniqueid.Protocol,
	Factory: func(conf *config.Config) node.Factory {
		return uniqueid.Factory
	},
}
