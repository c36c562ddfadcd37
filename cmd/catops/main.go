package main

import (
	"os"

	"github.com/esgaming/catalogops/cmd/catops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
