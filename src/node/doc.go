// Package node implements the runtime shared by every algorithm: the init
// handshake, the event loop, and the output discipline.
//
// Events
//
// A node reacts to three kinds of events: messages read from standard input,
// events injected by background producers such as a gossip ticker, and the
// end of the input stream. A Source multiplexes them into a single channel.
// The input reader and every producer run in their own goroutine and only
// communicate with the runtime by sending immutable Event values; none of them
// touches the state of the algorithm.
//
// State Machine
//
// The runtime owns a Handler, built by a Factory once the init message has
// been received, and calls its Step method for one event at a time from a
// single goroutine. Handlers therefore keep plain maps and slices without
// locks. A Handler writes through an Output, which serializes each envelope to
// exactly one line of standard output and flushes it immediately.
//
// Failures
//
// Malformed input, unknown payload kinds, a first message that is not init,
// and write failures are fatal: Run returns the error and the process is
// expected to exit. A producer whose submission fails because the runtime is
// gone simply stops.
package node
