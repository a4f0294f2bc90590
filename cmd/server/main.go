package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"hookci/internal/log"
	"hookci/internal/server"
)

func main() {
	// a missing .env is fine, the environment may be set some other way
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = log.NewContext(ctx, "hookci")
	if err := server.Run(ctx); err != nil {
		log.FromContext(ctx).Error("error running hookci server", "error", err)
		stop()
		os.Exit(-1)
	}
}
