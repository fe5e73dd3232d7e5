// Application entry point for the prover API: main is just wiring, logic
// lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/api/handlers"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/api/router"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/backend"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/common/config"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/storage/postgres"
)

// Version info (set via ldflags during build)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/prover-api.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting prover API",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("git_commit", gitCommit),
		zap.String("config", *configPath),
		zap.String("curve", cfg.ZKP.Curve),
	)

	// Optional proof-run store.
	var (
		db   *sql.DB
		runs postgres.ProofRunRepository
	)
	if cfg.Storage.Enabled {
		logger.Info("connecting to PostgreSQL",
			zap.String("host", cfg.Storage.Host),
			zap.String("database", cfg.Storage.Database),
		)
		db, err = postgres.Connect(cfg.GetStorageDSN(), &postgres.DatabaseConfig{
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			cancel()
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		cancel()
		runs = postgres.NewProofRunRepository(db)
		logger.Info("proof-run storage ready")
	}

	// Groth16 setup is circuit-specific, so every request builds a fresh
	// prover through this factory.
	newProver := func() (backend.Prover, error) {
		return backend.NewGroth16Prover(cfg.ZKP.Curve)
	}

	circuitHandler := handlers.NewCircuitHandler(newProver, runs, db, logger)
	r := router.SetupRouter(circuitHandler, cfg, logger)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("address", cfg.GetServerAddress()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// initLogger creates a configured zap logger.
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if cfg.Logging.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}
	return zapConfig.Build()
}
