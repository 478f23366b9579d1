// main is the entry point of the degree registry API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the storage backend (SQLite or in-memory)
//  4. Build the registry, minting and verification services. Minting
//     runs without a post-mint anchor: minting.WithAnchor is the hook for
//     one, and none ships with this binary.
//  5. Register all HTTP routes and start the server in a goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/degree-registry --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/degree-registry
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/degree-registry/internal/config"
	"github.com/aanand-mishra/degree-registry/internal/http/router"
	"github.com/aanand-mishra/degree-registry/internal/metrics"
	"github.com/aanand-mishra/degree-registry/internal/minting"
	"github.com/aanand-mishra/degree-registry/internal/registry"
	"github.com/aanand-mishra/degree-registry/internal/storage"
	"github.com/aanand-mishra/degree-registry/internal/storage/memory"
	"github.com/aanand-mishra/degree-registry/internal/storage/sqlite"
	"github.com/aanand-mishra/degree-registry/internal/verification"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	// Handlers log through the package-level slog functions.
	slog.SetDefault(log)

	log.Info("starting degree-registry",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	store, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised",
		slog.String("driver", cfg.StorageDriver),
		slog.String("path", cfg.StoragePath))

	m := metrics.New(prometheus.DefaultRegisterer)

	reg := registry.New(store, store, m, log.With(slog.String("component", "registry")))
	minter := minting.New(store, m, log.With(slog.String("component", "minting")))
	verifier := verification.New(store, m, log.With(slog.String("component", "verification")))

	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,
		Handler: router.New(router.Deps{
			Registry: reg,
			Minter:   minter,
			Verifier: verifier,
			Storage:  store,
			Gatherer: prometheus.DefaultGatherer,
			QRSize:   cfg.QRCode.Size,
		}),

		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed when Shutdown() is
		// called. That's expected — we don't want to log it as an error.
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStorage picks the backend named by cfg.StorageDriver.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.New(), nil
	}
	return sqlite.New(cfg)
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
