package main

import (
	"os"

	"github.com/cmlabs-hris/hris-performance-go/cmd/perfctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
