// Package broadcast implements the broadcast workload: nodes accept values
// from clients and spread them through the cluster with anti-entropy gossip.
//
// Every node keeps, for each neighbor, the set of values that neighbor is
// known to have, learnt from the gossip the neighbor sends. On each gossip
// tick a node sends each neighbor the values missing from that set, plus a
// small random sample of values the neighbor already has. The sample is how
// the neighbor learns what this node knows, so that it stops resending it.
package broadcast
