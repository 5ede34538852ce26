// Command fmfm is the batch tool for the document library.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fmfm/cmd/fmfm/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
