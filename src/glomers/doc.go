// Package glomers assembles a node process: it picks the workload, builds the
// node runtime on the standard streams and starts the optional HTTP service.
// The binaries under cmd/ are thin wrappers around it.
package glomers
