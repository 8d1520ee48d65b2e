// Package main provides the hypervision command line tool for working with exported flows offline.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "hypervision",
		Usage:                 "Inspect and convert exported flows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			catalogCommand(),
			validateCommand(),
			exportCommand(),
		},
	}
}
