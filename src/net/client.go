package net

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout is the time a Client waits for a reply in Request.
const DefaultTimeout = time.Second

// ErrClosed is returned by calls pending when the network closes.
var ErrClosed = errors.New("network is closed")

// Client plays the part of an external client on an InmemNetwork. It sends
// requests to nodes and waits for the replies that answer them.
type Client struct {
	id      string
	network *InmemNetwork
	codec   *message.Codec

	mtx     sync.Mutex
	ids     message.IDCounter
	pending map[uint64]chan message.Message
	closed  bool

	// Timeout bounds Request.
	Timeout time.Duration

	logger *logrus.Entry
}

// NewClient registers a client named id on the network.
func (n *InmemNetwork) NewClient(id string) (*Client, error) {
	n.Lock()
	defer n.Unlock()

	if n.closed {
		return nil, ErrClosed
	}
	if _, ok := n.nodes[id]; ok {
		return nil, fmt.Errorf("%s is a node", id)
	}
	if _, ok := n.clients[id]; ok {
		return nil, fmt.Errorf("client %s already exists", id)
	}

	c := &Client{
		id:      id,
		network: n,
		codec:   n.codec,
		pending: make(map[uint64]chan message.Message),
		Timeout: DefaultTimeout,
		logger:  n.logger.WithField("client", id),
	}
	n.clients[id] = c

	return c, nil
}

// ID returns the name of the client.
func (c *Client) ID() string {
	return c.id
}

// Call sends payload to dest and waits for the reply, or for ctx to be done.
// An error reply is returned along with an error.
func (c *Client) Call(ctx context.Context, dest string, payload message.Payload) (message.Message, error) {
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return message.Message{}, ErrClosed
	}
	id := c.ids.Next()
	replyCh := make(chan message.Message, 1)
	c.pending[id] = replyCh
	c.mtx.Unlock()

	line, err := c.codec.Encode(message.Message{
		Src:  c.id,
		Dest: dest,
		Body: message.Body{ID: message.ID(id), Payload: payload},
	})
	if err != nil {
		c.forget(id)
		return message.Message{}, err
	}

	c.network.route(append(line, '\n'))

	select {
	case reply, ok := <-replyCh:
		if !ok {
			return message.Message{}, ErrClosed
		}
		if e, ok := reply.Body.Payload.(message.Error); ok {
			return reply, fmt.Errorf("%s replied with error %d: %s", dest, e.Code, e.Text)
		}
		return reply, nil
	case <-ctx.Done():
		c.forget(id)
		return message.Message{}, fmt.Errorf("%s %d to %s: %w", payload.Type(), id, dest, ctx.Err())
	}
}

// Request is Call bounded by the Timeout of the client.
func (c *Client) Request(dest string, payload message.Payload) (message.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	return c.Call(ctx, dest, payload)
}

func (c *Client) forget(id uint64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.pending, id)
}

func (c *Client) deliver(line []byte) {
	m, err := c.codec.Decode(line)
	if err != nil {
		c.logger.WithError(err).Warn("Undecodable reply")
		return
	}

	if m.Body.InReplyTo == nil {
		c.logger.WithField("type", m.Type()).Debug("Not a reply")
		return
	}

	c.mtx.Lock()
	replyCh, ok := c.pending[*m.Body.InReplyTo]
	delete(c.pending, *m.Body.InReplyTo)
	c.mtx.Unlock()

	if !ok {
		c.logger.WithField("in_reply_to", *m.Body.InReplyTo).Debug("Late reply")
		return
	}

	replyCh <- m
}

func (c *Client) close() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
