// Package main is the entrypoint for the joinspace CLI.
package main

import (
	"os"

	"github.com/joinspace/joinspace/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
