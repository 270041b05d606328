// Package net provides an in-memory network to run several nodes in one
// process.
//
// In production every node is a separate process talking to the harness over
// its standard streams. InmemNetwork hands each node a pair of streams
// instead, and routes the lines written to one of them to the input stream of
// the destination, according to the dest field of the envelope. Clients
// registered on the network send requests and correlate the replies by
// msg_id.
//
// Traffic between nodes can be dropped with a Filter, to exercise the
// recovery of the algorithms from message loss and partitions.
package net
