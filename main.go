package main

import (
	"os"

	"github.com/spigell/retentioniq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
