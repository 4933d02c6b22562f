package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/heartfuse/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seed.NewCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("seed-submissions: " + err.Error() + "\n")
		os.Exit(1)
	}
}
