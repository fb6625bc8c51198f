package main

import (
	"os"

	"github.com/elektroprotokolle/pruefprotokoll/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
