package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmaraujo/picklist/internal/app"
	"github.com/dmaraujo/picklist/internal/chat"
	"github.com/dmaraujo/picklist/internal/config"
	"github.com/dmaraujo/picklist/pkg/bootstrap"
	"github.com/dmaraujo/picklist/pkg/configloader"
)

const appName = "picklist"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application and supervises the gateway loop, the
// sync scheduler and the keep-alive HTTP server until shutdown.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	deps, err := app.SetupDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}

	// The snapshot must be in memory before any interaction or job
	// can touch the cache.
	if err := deps.Store.Load(); err != nil {
		return fmt.Errorf("failed to load cache snapshot: %w", err)
	}
	defer func() {
		if err := deps.Store.Close(); err != nil {
			logger.Error("final snapshot flush failed", "error", err)
		}
	}()

	registerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := deps.Rest.RegisterCommands(registerCtx, cfg.Chat.GuildID, app.Commands()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	logger.Info("commands registered", "guild", cfg.Chat.GuildID)

	gateway := chat.NewGateway(cfg.Chat.GatewayURL, cfg.Chat.Token, deps.Handler.HandleEvent, logger)
	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gateway.Run(gCtx)
	})

	g.Go(func() error {
		return deps.Scheduler.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
