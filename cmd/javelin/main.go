package main

import (
	"os"

	"github.com/javelinws/javelin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
