// Package service exposes a read-only HTTP API next to a running node: /stats
// returns the counters of the node runtime as a JSON object and /metrics
// serves the Prometheus metrics of the process. It is off unless an address is
// configured, since the harness only talks to nodes through their standard
// streams.
package service
