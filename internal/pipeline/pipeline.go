// Package pipeline wires the compilation stages together:
// parse → compile → backend setup → witness evaluation → prove → verify.
// Every failure is attributed to exactly one stage so callers can report
// "parse failed at line N" vs "witness violates circuit" vs "proof failed
// verification" without inspecting error internals.
package pipeline

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/backend"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/circuit"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/r1cs"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/witness"
)

// Stage identifies the pipeline stage that produced a failure.
type Stage string

const (
	StageParse   Stage = "parse"
	StageCompile Stage = "compile"
	StageSetup   Stage = "setup"
	StageWitness Stage = "witness"
	StageProve   Stage = "prove"
	StageVerify  Stage = "verify"
)

// StageError wraps a stage failure with its origin.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode maps a pipeline error to the CLI exit code for its stage.
// Success is 0; unknown failures are 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	se, ok := err.(*StageError)
	if !ok {
		return 1
	}
	switch se.Stage {
	case StageParse:
		return 2
	case StageCompile:
		return 3
	case StageSetup:
		return 4
	case StageWitness:
		return 5
	case StageProve:
		return 6
	case StageVerify:
		return 7
	default:
		return 1
	}
}

// Result carries the artifacts of a successful (or partially successful)
// run. Proof and Verified are zero when no prover is configured.
type Result struct {
	Circuit  *circuit.Circuit
	System   *r1cs.System
	Witness  *witness.Witness
	Proof    *backend.Proof
	Verified bool
}

// Runner executes the pipeline. A nil prover runs parse, compile and
// witness evaluation only, useful for dry runs and tests that do not need
// the cryptographic backend.
type Runner struct {
	prover backend.Prover
	logger *zap.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(prover backend.Prover, logger *zap.Logger) *Runner {
	return &Runner{prover: prover, logger: logger}
}

// Run executes the full pipeline over a circuit description.
func (r *Runner) Run(src io.Reader) (*Result, error) {
	circ, err := circuit.Parse(src)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Err: err}
	}
	r.logger.Info("circuit parsed",
		zap.String("circuit", circ.Name),
		zap.Int("variables", circ.NumVariables()),
		zap.Int("operations", len(circ.Operations)),
	)

	cs, err := r1cs.Compile(circ)
	if err != nil {
		return nil, &StageError{Stage: StageCompile, Err: err}
	}
	r.logger.Info("constraint system compiled",
		zap.String("circuit", circ.Name),
		zap.Int("constraints", cs.NbConstraints()),
		zap.Int("wires", cs.NbWires),
		zap.Int("public", len(cs.Public)),
	)

	if r.prover != nil {
		if err := r.prover.Setup(circ, cs); err != nil {
			return nil, &StageError{Stage: StageSetup, Err: err}
		}
		r.logger.Info("backend setup complete", zap.String("circuit", circ.Name))
	}

	w, err := witness.Compute(circ)
	if err != nil {
		return nil, &StageError{Stage: StageWitness, Err: err}
	}
	// Cross-check: the evaluated witness must satisfy every compiled row.
	// A violation here means the instance is invalid (e.g. a non-boolean
	// xor input slipped through), never a backend fault.
	if err := cs.IsSatisfied(w.Values); err != nil {
		return nil, &StageError{Stage: StageWitness, Err: err}
	}
	r.logger.Info("witness evaluated",
		zap.String("circuit", circ.Name),
		zap.Int("assignments", len(w.Values)),
	)

	result := &Result{Circuit: circ, System: cs, Witness: w}
	if r.prover == nil {
		return result, nil
	}

	proof, err := r.prover.Prove(w)
	if err != nil {
		return nil, &StageError{Stage: StageProve, Err: err}
	}
	r.logger.Info("proof generated",
		zap.String("circuit", circ.Name),
		zap.Int("proof_bytes", len(proof.ProofData)),
	)

	ok, err := r.prover.Verify(proof)
	if err != nil {
		return nil, &StageError{Stage: StageVerify, Err: err}
	}
	if !ok {
		return nil, &StageError{Stage: StageVerify, Err: fmt.Errorf("proof failed verification")}
	}
	r.logger.Info("proof verified", zap.String("circuit", circ.Name))

	result.Proof = proof
	result.Verified = true
	return result, nil
}

// RunFile executes the pipeline over a circuit description file.
func (r *Runner) RunFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Err: fmt.Errorf("failed to open circuit file: %w", err)}
	}
	defer f.Close()
	return r.Run(f)
}
