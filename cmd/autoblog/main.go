package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"autoblog/internal/engine"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// Interrupted by the user; nothing to report.
		case errors.Is(err, engine.ErrBusy):
			fmt.Fprintln(os.Stderr, "autoblog: another autoblog command is already running; wait for it to finish")
		default:
			fmt.Fprintln(os.Stderr, "autoblog:", err)
		}
		os.Exit(1)
	}
}
