// Package peers models the membership of a simulated cluster.
//
// Membership is fixed for the lifetime of a node: the harness announces every
// node id in the init message and nodes never join or leave afterwards. The
// position of a node in that announcement is its index, which is stable across
// the cluster because every node receives the same list.
package peers
