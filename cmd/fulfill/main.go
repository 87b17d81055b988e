package main

import (
	"fmt"
	"os"

	"github.com/vsinha/fulfillment/pkg/interfaces/cli/commands"
)

func main() {
	cmd := commands.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.GetExitCode(err))
	}
}
