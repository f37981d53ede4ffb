package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/app"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/fx"
)

func main() {
	args, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Println("Error:", err)
		fmt.Println(config.Usage)
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Opts{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	application := fx.New(
		fx.Logger(log),
		fx.Supply(args),
		app.Module(cfg),
		fx.StartTimeout(app.StartTimeout(cfg)),
	)

	log.Info("Tweet fetcher is starting, press Ctrl+C to stop",
		"account", args.Account,
		"interval", args.Interval().String())

	os.Exit(serve(application, log, make(chan os.Signal, 1)))
}

type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	StartTimeout() time.Duration
	StopTimeout() time.Duration
}

// serve runs the application until SIGINT or SIGTERM and returns the exit code.
// Signals are captured before Start because the first fetch cycle runs inside it.
func serve(application lifecycle, log logger.Logger, sigChan chan os.Signal) int {
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	startCtx, cancel := context.WithTimeout(context.Background(), application.StartTimeout())
	defer cancel()

	if err := application.Start(startCtx); err != nil {
		log.Error("Failed to start application", "error", err)
		return 1
	}

	sig := <-sigChan
	log.Info("Received signal, shutting down", "signal", sig.String())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), application.StopTimeout())
	defer stopCancel()

	// Gracefully shutdown the application
	if err := application.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application", "error", err)
		return 1
	}
	return 0
}
