// Package main is the Recall CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/hyperjump/recall/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
