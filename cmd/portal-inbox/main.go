package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/errors"
)

func main() {
	os.Exit(run(func(ctx context.Context) error {
		return cmd.ExecuteContext(ctx)
	}))
}

// run executes the CLI and maps its error to an exit code.
func run(execute func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx); err != nil {
		errors.Report(errors.NewDefaultCLIHandler(), err)
		return 1
	}
	return 0
}
