package node

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/telemetry"
	"github.com/sirupsen/logrus"
)

// ErrShutdown is returned to producers that submit events after the consumer
// has gone away.
var ErrShutdown = errors.New("node is shut down")

// Source multiplexes the input stream and any number of background producers
// into one ordered channel of events. The input reader and the producers run
// in their own goroutines and only share the channel.
type Source struct {
	reader io.Reader
	codec  *message.Codec

	eventCh    chan Event
	shutdownCh chan struct{}
	closeOnce  sync.Once
	listenOnce sync.Once

	received uint64

	logger *logrus.Entry
}

// NewSource returns a Source reading envelopes from r. queueSize is the
// capacity of the event channel.
func NewSource(r io.Reader, c *message.Codec, queueSize int, logger *logrus.Entry) *Source {
	if queueSize < 0 {
		queueSize = 0
	}

	return &Source{
		reader:     r,
		codec:      c,
		eventCh:    make(chan Event, queueSize),
		shutdownCh: make(chan struct{}),
		logger:     logger,
	}
}

// Listen starts the input reader. Calling it more than once has no effect.
func (s *Source) Listen() {
	s.listenOnce.Do(func() {
		go s.readLoop()
	})
}

// Events returns the channel consumed by the runtime.
func (s *Source) Events() <-chan Event {
	return s.eventCh
}

// Done returns a channel that is closed when the consumer is gone.
func (s *Source) Done() <-chan struct{} {
	return s.shutdownCh
}

// Pending returns the number of events waiting to be consumed.
func (s *Source) Pending() int {
	return len(s.eventCh)
}

// Received returns the number of envelopes decoded from the input.
func (s *Source) Received() uint64 {
	return atomic.LoadUint64(&s.received)
}

// Submit queues an injected event. It blocks while the channel is full and
// returns ErrShutdown once the consumer is gone.
func (s *Source) Submit(kind Injected) error {
	select {
	case <-s.shutdownCh:
		return ErrShutdown
	default:
	}

	if !s.send(InjectedEvent{Kind: kind}) {
		return ErrShutdown
	}

	return nil
}

// Close tells the reader and the producers that no more events will be
// consumed.
func (s *Source) Close() {
	s.closeOnce.Do(func() {
		close(s.shutdownCh)
	})
}

func (s *Source) send(ev Event) bool {
	select {
	case s.eventCh <- ev:
		return true
	case <-s.shutdownCh:
		return false
	}
}

// readLoop decodes one envelope per line. It ends with exactly one EndOfInput,
// carrying the error if the stream could not be read or decoded.
func (s *Source) readLoop() {
	r := bufio.NewReader(s.reader)

	for {
		line, readErr := r.ReadBytes('\n')

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			msg, err := s.codec.Decode(line)
			if err != nil {
				s.logger.WithError(err).Error("Decoding input")
				s.send(EndOfInput{Err: err})
				return
			}

			atomic.AddUint64(&s.received, 1)
			telemetry.MessagesReceived.WithLabelValues(msg.Type()).Inc()

			if !s.send(NetworkEvent{Msg: msg}) {
				return
			}
		}

		if readErr == io.EOF {
			s.logger.Debug("Input closed")
			s.send(EndOfInput{})
			return
		}

		if readErr != nil {
			s.logger.WithError(readErr).Error("Reading input")
			s.send(EndOfInput{Err: readErr})
			return
		}
	}
}
