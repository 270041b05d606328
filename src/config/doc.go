// Package config defines the configuration of a node process.
//
// The same Config backs every workload binary. It is filled from command line
// flags and GLOMERS_ environment variables, and hands each layer the part it
// needs: the node runtime gets its queue size and logger, the gossiping
// workloads get their interval and redundancy.
//
// Logs are written to standard error, which the harness collects, because
// standard output is reserved for protocol messages.
package config
