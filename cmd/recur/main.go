package main

import (
	"os"

	"github.com/zjean/firefly-iii-sub003/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
