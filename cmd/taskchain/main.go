package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/layer-3/taskchain"
	"github.com/layer-3/taskchain/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskchain: failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := taskchain.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskchain: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "taskchain: %v\n", err)
		os.Exit(1)
	}
}
