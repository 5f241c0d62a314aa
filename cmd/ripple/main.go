// Command ripple renders and runs the todo application from the terminal.
package main

import (
	"os"

	"github.com/go-drift/ripple/cmd/ripple/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
