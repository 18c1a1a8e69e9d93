package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxwise/cv-back/app"
	"luxwise/cv-back/config"
	"luxwise/cv-back/logging"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Setup(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to start", zap.Error(err))
	}

	if err := a.Run(ctx); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
