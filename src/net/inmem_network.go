package net

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/sirupsen/logrus"
)

// DefaultInboxSize is the number of envelopes queued per node before traffic
// between nodes starts being dropped.
const DefaultInboxSize = 4096

// Filter decides whether an envelope between two nodes is delivered. It is
// never consulted for traffic to or from clients.
type Filter func(h message.Header) bool

// InmemNetwork routes line-delimited envelopes between nodes running in the
// same process, to test them without spawning processes. Each node is
// attached with a pair of streams standing for its stdin and stdout.
//
// Like the real network, it may lose messages between nodes, but it never
// reorders the messages sent from one node to another.
type InmemNetwork struct {
	sync.RWMutex
	codec   *message.Codec
	nodes   map[string]*inbox
	clients map[string]*Client
	closed  bool

	filterLock sync.Mutex
	filter     Filter

	delivered uint64
	dropped   uint64

	logger *logrus.Entry
}

// NewInmemNetwork returns an empty network carrying envelopes of the protocol
// of c.
func NewInmemNetwork(c *message.Codec, logger *logrus.Entry) *InmemNetwork {
	return &InmemNetwork{
		codec:   c,
		nodes:   make(map[string]*inbox),
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Attach registers node id and returns the streams the node must read from and
// write to.
func (n *InmemNetwork) Attach(id string) (io.Reader, io.Writer, error) {
	n.Lock()
	defer n.Unlock()

	if n.closed {
		return nil, nil, fmt.Errorf("network is closed")
	}
	if _, ok := n.nodes[id]; ok {
		return nil, nil, fmt.Errorf("node %s already attached", id)
	}
	if _, ok := n.clients[id]; ok {
		return nil, nil, fmt.Errorf("%s is a client", id)
	}

	pr, pw := io.Pipe()

	in := &inbox{
		lines:  make(chan []byte, DefaultInboxSize),
		done:   make(chan struct{}),
		pipe:   pw,
		logger: n.logger.WithField("node", id),
	}
	n.nodes[id] = in

	go in.pump()

	return pr, &conn{network: n}, nil
}

// SetFilter installs f on the network. A nil filter delivers everything. f is
// called under a lock and needs no synchronization of its own.
func (n *InmemNetwork) SetFilter(f Filter) {
	n.filterLock.Lock()
	defer n.filterLock.Unlock()
	n.filter = f
}

// Heal removes the filter.
func (n *InmemNetwork) Heal() {
	n.SetFilter(nil)
}

// Partition drops every envelope between two nodes that are not in the same
// group. Nodes missing from all groups are isolated.
func (n *InmemNetwork) Partition(groups ...[]string) {
	side := make(map[string]int)
	for i, g := range groups {
		for _, id := range g {
			side[id] = i
		}
	}

	n.SetFilter(func(h message.Header) bool {
		s, ok := side[h.Src]
		d, ok2 := side[h.Dest]
		return ok && ok2 && s == d
	})
}

// Delivered returns the number of envelopes handed to a node or a client.
func (n *InmemNetwork) Delivered() uint64 {
	return atomic.LoadUint64(&n.delivered)
}

// Dropped returns the number of envelopes that were lost.
func (n *InmemNetwork) Dropped() uint64 {
	return atomic.LoadUint64(&n.dropped)
}

// Close closes the input stream of every node. Envelopes still queued are
// lost.
func (n *InmemNetwork) Close() error {
	n.Lock()
	defer n.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	for _, in := range n.nodes {
		close(in.done)
		in.pipe.Close()
	}
	for _, c := range n.clients {
		c.close()
	}

	return nil
}

func (n *InmemNetwork) isClient(id string) bool {
	_, ok := n.clients[id]
	return ok
}

// route delivers one line to its destination.
func (n *InmemNetwork) route(line []byte) {
	h, err := n.codec.Header(line)
	if err != nil {
		n.logger.WithError(err).Warn("Unroutable envelope")
		atomic.AddUint64(&n.dropped, 1)
		return
	}

	n.RLock()
	closed := n.closed
	client, toClient := n.clients[h.Dest]
	in, toNode := n.nodes[h.Dest]
	fromClient := n.isClient(h.Src)
	n.RUnlock()

	switch {
	case closed:
		atomic.AddUint64(&n.dropped, 1)

	case toClient:
		client.deliver(line)
		atomic.AddUint64(&n.delivered, 1)

	case !toNode:
		n.logger.WithFields(logrus.Fields{
			"src":  h.Src,
			"dest": h.Dest,
			"type": h.Type,
		}).Warn("Unknown destination")
		atomic.AddUint64(&n.dropped, 1)

	// clients block until their request is queued
	case fromClient:
		select {
		case in.lines <- line:
			atomic.AddUint64(&n.delivered, 1)
		case <-in.done:
			atomic.AddUint64(&n.dropped, 1)
		}

	case !n.allow(h):
		atomic.AddUint64(&n.dropped, 1)

	default:
		select {
		case in.lines <- line:
			atomic.AddUint64(&n.delivered, 1)
		default:
			in.logger.WithField("type", h.Type).Warn("Inbox full, dropping")
			atomic.AddUint64(&n.dropped, 1)
		}
	}
}

func (n *InmemNetwork) allow(h message.Header) bool {
	n.filterLock.Lock()
	defer n.filterLock.Unlock()

	if n.filter == nil {
		return true
	}
	return n.filter(h)
}

// inbox feeds the input stream of one node in arrival order.
type inbox struct {
	lines  chan []byte
	done   chan struct{}
	pipe   *io.PipeWriter
	logger *logrus.Entry
}

func (in *inbox) pump() {
	defer in.pipe.Close()

	for {
		select {
		case line := <-in.lines:
			if _, err := in.pipe.Write(line); err != nil {
				in.logger.WithError(err).Debug("Input closed")
				return
			}
		case <-in.done:
			return
		}
	}
}

// conn is the output stream of a node. It splits what the node writes into
// lines and routes each of them.
type conn struct {
	sync.Mutex
	network *InmemNetwork
	buf     bytes.Buffer
}

func (c *conn) Write(p []byte) (int, error) {
	c.Lock()
	defer c.Unlock()

	c.buf.Write(p)

	for {
		i := bytes.IndexByte(c.buf.Bytes(), '\n')
		if i < 0 {
			break
		}

		line := make([]byte, i+1)
		copy(line, c.buf.Next(i+1))

		if len(bytes.TrimSpace(line)) > 0 {
			c.network.route(line)
		}
	}

	return len(p), nil
}
