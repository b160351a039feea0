package main

import (
	"os"

	"github.com/panekit/panekit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
