package main

import (
	"os"

	"github.com/eurobrokers/leadcapture/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
