package main

import (
	"fmt"
	"os"

	"github.com/mosaicnetworks/glomers/src/cmd/glomers/command"
	"github.com/mosaicnetworks/glomers/src/glomers"
)

func main() {
	if err := command.NewRootCmd(glomers.GCounter, os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
