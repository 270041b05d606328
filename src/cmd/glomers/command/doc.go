// Package command builds the cobra command shared by the workload binaries.
//
// Every option can be given as a flag, as an environment variable prefixed
// with GLOMERS_, or in a configuration file passed with --config, in that
// order of precedence.
package command
