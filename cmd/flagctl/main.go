package main

import (
	"os"

	"github.com/dmitrymomot/flagkit/cmd/flagctl/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
