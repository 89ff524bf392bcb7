package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patentai/internal/gateway/app"
	"patentai/internal/logger"
)

func main() {
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	a, err := app.New(context.Background(), log)
	if err != nil {
		log.Fatal("failed to initialize app", "error", err)
	}

	go func() {
		if err := a.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exiting")
}
