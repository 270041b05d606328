package glomers

import (
	"os"

	"github.com/mosaicnetworks/glomers/src/config"
)

// This example runs the broadcast workload on the standard streams, which is
// what the broadcast binary does.
func Example() {
	// Start from default configuration.
	conf := config.NewDefaultConfig()

	// Serve /stats and /metrics next to the node.
	conf.ServiceAddr = "127.0.0.1:8000"

	engine := NewGlomers(conf, Broadcast, os.Stdin, os.Stdout)

	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize node: ", err)
		os.Exit(1)
	}

	// Run until the harness closes standard input.
	if err := engine.Run(); err != nil {
		conf.Logger().Error(err)
		os.Exit(1)
	}
}
