package main

import (
	"os"

	"github.com/renderlens/renderlens/cmd/renderlens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
