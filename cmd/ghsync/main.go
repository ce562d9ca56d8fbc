// Command ghsync pushes the changed files of a local folder to a GitHub
// repository.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbout22/ghsync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
