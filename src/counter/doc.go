// Package counter implements the grow-only counter workload.
//
// Each node counts the additions it receives in its own slot of a vector
// indexed by position in the cluster. The vector is sent to every other node
// after each addition and again on a periodic tick, and merged by taking the
// maximum of each slot. Reading returns the sum of the slots.
package counter
