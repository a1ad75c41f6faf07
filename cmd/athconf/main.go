// Package main provides the athconf CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/athconf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
