package main

import (
	"os"

	"github.com/latticesearch/lattice/cmd/lattice"
)

func main() {
	if err := lattice.Execute(); err != nil {
		os.Exit(1)
	}
}
