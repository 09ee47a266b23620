package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Yewatermelon/FPSGame/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, nil); err != nil {
		log.Fatalf("%v", err)
	}
}
