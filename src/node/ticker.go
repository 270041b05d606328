package node

import (
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// Ticker is a background producer that submits the same injected event on a
// fixed schedule. It stops when the node shuts down or when a submission
// fails, which means nobody consumes events anymore.
type Ticker struct {
	timerFactory timerFactory
	interval     time.Duration
	kind         Injected
	submit       func(Injected) error
	shutdownCh   <-chan struct{} //closed when the consumer goes away
}

// NewTicker returns a Ticker that submits kind every interval.
func NewTicker(interval time.Duration, kind Injected, submit func(Injected) error, shutdownCh <-chan struct{}) *Ticker {
	return &Ticker{
		timerFactory: time.After,
		interval:     interval,
		kind:         kind,
		submit:       submit,
		shutdownCh:   shutdownCh,
	}
}

// Run blocks until the ticker stops.
func (t *Ticker) Run() {
	for {
		select {
		case <-t.timerFactory(t.interval):
			if err := t.submit(t.kind); err != nil {
				return
			}
		case <-t.shutdownCh:
			return
		}
	}
}
