package node

import (
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node/state"
	"github.com/mosaicnetworks/glomers/src/peers"
	"github.com/mosaicnetworks/glomers/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Handler is the algorithm state machine driven by the runtime. Step is
// called for one event at a time, always from the same goroutine, so a
// Handler never needs locking around its own state. A returned error is fatal
// for the node.
type Handler interface {
	Step(ev Event, out Output) error
}

// Injector lets a state machine feed events back into its own stream.
type Injector interface {
	// Submit queues one injected event.
	Submit(kind Injected) error

	// Every starts a background producer submitting kind on a fixed schedule
	// until the node shuts down.
	Every(interval time.Duration, kind Injected) error
}

// Factory builds the state machine once the init message has been received.
type Factory func(init message.Init, cluster *peers.Cluster, inj Injector, logger *logrus.Entry) (Handler, error)

// Node is the runtime of one cluster member. It performs the init handshake,
// then pulls events from its Source and dispatches them to the Handler built
// by its Factory, until the input stream closes.
type Node struct {
	state.Manager

	conf   *Config
	logger *logrus.Entry

	codec   *message.Codec
	source  *Source
	output  io.Writer
	out     *Writer
	factory Factory
	handler Handler
	cluster *peers.Cluster

	id        atomic.Value
	start     time.Time
	processed uint64
}

// NewNode is a factory method that returns a Node reading envelopes of the
// given protocol from in and writing them to out.
func NewNode(conf *Config,
	protocol *message.Protocol,
	factory Factory,
	in io.Reader,
	out io.Writer,
) *Node {
	logger := conf.Logger.WithField("protocol", protocol.Name())
	codec := message.NewCodec(protocol)

	node := Node{
		conf:    conf,
		logger:  logger,
		codec:   codec,
		source:  NewSource(in, codec, conf.QueueSize, logger.WithField("component", "source")),
		output:  out,
		factory: factory,
		start:   time.Now(),
	}

	return &node
}

// Run invokes the main loop of the node. It returns nil when the input stream
// closes cleanly, and the first fatal error otherwise.
func (n *Node) Run() error {
	n.source.Listen()
	defer n.Shutdown()

	if err := n.init(); err != nil {
		n.logger.WithError(err).Error("Init")
		return err
	}

	n.SetState(state.Running)

	for ev := range n.source.Events() {
		done, err := n.dispatch(ev)
		if err != nil {
			n.logger.WithError(err).Error("Step")
			return err
		}
		if done {
			n.logger.Debug("End of input")
			return nil
		}
	}

	return nil
}

// init performs the handshake: the first event must be an init message.
func (n *Node) init() error {
	ev := <-n.source.Events()

	var req message.Message
	switch e := ev.(type) {
	case NetworkEvent:
		req = e.Msg
	case EndOfInput:
		if e.Err != nil {
			return e.Err
		}
		return common.NewProtocolErr("Handshake", common.UnexpectedMessage, "end of input before init")
	default:
		return common.NewProtocolErr("Handshake", common.UnexpectedMessage, eventKind(ev))
	}

	init, ok := req.Body.Payload.(message.Init)
	if !ok {
		return common.NewProtocolErr("Handshake", common.UnexpectedMessage, req.Type())
	}

	cluster, err := peers.NewCluster(init.NodeID, init.NodeIDs)
	if err != nil {
		return err
	}

	n.cluster = cluster
	n.id.Store(init.NodeID)
	n.logger = n.logger.WithField("node_id", init.NodeID)
	n.out = NewWriter(init.NodeID, n.codec, n.output, n.logger.WithField("component", "output"))

	n.logger.WithFields(logrus.Fields{
		"node_ids": init.NodeIDs,
	}).Debug("Init")

	handler, err := n.factory(init, cluster, n, n.logger)
	if err != nil {
		return fmt.Errorf("build state machine: %w", err)
	}
	n.handler = handler

	return n.out.Reply(req, message.InitOk{})
}

// dispatch hands one event to the state machine. It reports whether the event
// was the last one.
func (n *Node) dispatch(ev Event) (bool, error) {
	kind := eventKind(ev)
	start := time.Now()

	defer atomic.AddUint64(&n.processed, 1)
	defer telemetry.ObserveStep(kind, start)
	telemetry.EventsTotal.WithLabelValues(kind).Inc()

	switch e := ev.(type) {
	case NetworkEvent:
		switch p := e.Msg.Body.Payload.(type) {
		case message.Init:
			return false, common.NewProtocolErr("Handshake", common.UnexpectedMessage, "init after handshake")
		case message.InitOk:
			return false, nil
		case message.Error:
			n.logger.WithFields(logrus.Fields{
				"src":  e.Msg.Src,
				"code": p.Code,
				"text": p.Text,
			}).Debug("Error reply")
			return false, nil
		}

		if err := n.handler.Step(ev, n.out); err != nil {
			return false, fmt.Errorf("%s from %s: %w", e.Msg.Type(), e.Msg.Src, err)
		}
	case InjectedEvent:
		if err := n.handler.Step(ev, n.out); err != nil {
			return false, fmt.Errorf("injected %d: %w", e.Kind, err)
		}
	case EndOfInput:
		if e.Err != nil {
			return true, e.Err
		}
		if err := n.handler.Step(ev, n.out); err != nil {
			return true, fmt.Errorf("end of input: %w", err)
		}
		return true, nil
	}

	return false, nil
}

// Submit implements Injector.
func (n *Node) Submit(kind Injected) error {
	return n.source.Submit(kind)
}

// Every implements Injector.
func (n *Node) Every(interval time.Duration, kind Injected) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	ticker := NewTicker(interval, kind, n.source.Submit, n.source.Done())

	if !n.GoFunc(ticker.Run) {
		return fmt.Errorf("too many background producers")
	}

	n.logger.WithFields(logrus.Fields{
		"interval": interval,
		"kind":     kind,
	}).Debug("Started ticker")

	return nil
}

// Shutdown stops the background producers and waits for them to exit. The
// input reader is not waited for; it may be blocked reading the input.
func (n *Node) Shutdown() {
	if n.GetState() != state.Shutdown {
		n.logger.Debug("Shutdown")

		n.SetState(state.Shutdown)

		n.source.Close()

		n.WaitRoutines()
	}
}

// ID returns the id of this node, or the empty string before the handshake.
func (n *Node) ID() string {
	id, _ := n.id.Load().(string)
	return id
}

// GetStats returns stats. It is safe to call from any goroutine.
func (n *Node) GetStats() map[string]string {
	var sent uint64
	if n.GetState() != state.Initializing && n.out != nil {
		sent = n.out.Sent()
	}

	return map[string]string{
		"id":                n.ID(),
		"state":             n.GetState().String(),
		"events_processed":  strconv.FormatUint(atomic.LoadUint64(&n.processed), 10),
		"messages_received": strconv.FormatUint(n.source.Received(), 10),
		"messages_sent":     strconv.FormatUint(sent, 10),
		"pending_events":    strconv.Itoa(n.source.Pending()),
		"producers":         strconv.Itoa(n.Routines()),
		"uptime":            time.Since(n.start).String(),
	}
}
