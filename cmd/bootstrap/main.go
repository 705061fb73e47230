package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-xray-sdk-go/xray"
	adapterlogger "pizza-authz/internal/adapters/logger"
	"pizza-authz/internal/infrastructure/config"
	"pizza-authz/internal/platform/lambda"
	"pizza-authz/internal/platform/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		adapterlogger.New("info").Error(context.Background(), "configuration error", "error", err)
		os.Exit(1)
	}
	logger := adapterlogger.New(cfg.LogLevel)
	xray.Configure(xray.Config{LogLevel: "error"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, cleanup, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to initialize server", "error", err)
		cleanup()
		os.Exit(1)
	}
	defer cleanup()

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		logger.Info(ctx, "starting lambda handler")
		awslambda.Start(lambda.NewLambdaHandler(e))
		return
	}

	go func() {
		logger.Info(ctx, "starting http server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "http server shutdown", "error", err)
	}
}
