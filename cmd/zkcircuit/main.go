// Command zkcircuit compiles a circuit description file into an R1CS,
// evaluates its witness, and runs the full Groth16 prove/verify cycle.
//
// Usage: zkcircuit [-config configs/zkcircuit.yaml] <path-to-circuit-file>
//
// Exit codes identify the failing stage: 0 success, 2 parse, 3 compile,
// 4 setup, 5 witness, 6 prove, 7 verify.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/backend"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/common/config"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/pipeline"
)

// Version info (set via ldflags during build)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/zkcircuit.yaml", "Path to config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] <path-to-circuit-file>\n", os.Args[0])
		os.Exit(1)
	}
	circuitPath := flag.Arg(0)

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

	logger.Info("starting zkcircuit",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("git_commit", gitCommit),
		zap.String("circuit_file", circuitPath),
		zap.String("curve", cfg.ZKP.Curve),
		zap.String("backend", cfg.ZKP.Backend),
	)

	prover, err := backend.NewGroth16Prover(cfg.ZKP.Curve)
	if err != nil {
		logger.Error("failed to initialize prover", zap.Error(err))
		os.Exit(1)
	}

	runner := pipeline.NewRunner(prover, logger)
	result, err := runner.RunFile(circuitPath)
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			logger.Error("pipeline failed",
				zap.String("stage", string(se.Stage)),
				zap.Error(se.Err),
			)
			fmt.Fprintf(os.Stderr, "%s stage failed: %v\n", se.Stage, se.Err)
		} else {
			logger.Error("pipeline failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		}
		os.Exit(pipeline.ExitCode(err))
	}

	logger.Info("proof verified",
		zap.String("circuit", result.Circuit.Name),
		zap.Int("constraints", result.System.NbConstraints()),
		zap.Int("wires", result.System.NbWires),
		zap.Int("proof_bytes", len(result.Proof.ProofData)),
	)
	fmt.Printf("circuit %s: %d constraints, %d wires, proof verified\n",
		result.Circuit.Name, result.System.NbConstraints(), result.System.NbWires)
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
