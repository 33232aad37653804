package main

import (
	"context"
	"log"
	"os"

	"github.com/vadim/neo-threads/internal/app"
	"github.com/vadim/neo-threads/internal/config"
)

func main() {
	cfg := config.MustLoad()

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// blocks until shutdown
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}
