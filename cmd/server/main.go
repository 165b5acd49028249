// Package main starts the AreaChat relay server and handles termination.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/areachat/server/internal/server"
)

func main() {
	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
