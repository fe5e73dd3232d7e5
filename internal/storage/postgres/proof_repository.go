// Implements database operations for proof-run history. Persistence is
// optional: the pipeline itself never stores state, this is an audit trail
// for the prover API.

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ProofRun records one completed (or failed) pipeline run.
type ProofRun struct {
	ID           string
	CircuitName  string
	Constraints  int
	Wires        int
	PublicInputs []string
	Verified     bool
	ProofData    []byte
	Curve        string
	Backend      string
	FailedStage  string
	ErrorMessage string
	CreatedAt    time.Time
}

// ProofRunRepository defines operations for proof-run persistence.
type ProofRunRepository interface {
	SaveRun(ctx context.Context, run *ProofRun) error
	GetRun(ctx context.Context, id string) (*ProofRun, error)
	ListRuns(ctx context.Context, limit int) ([]*ProofRun, error)
}

// DatabaseConfig holds connection pool configuration.
type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens a PostgreSQL connection pool and verifies it with a ping.
func Connect(dsn string, cfg *DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg != nil {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the proof_runs table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS proof_runs (
			id            UUID PRIMARY KEY,
			circuit_name  TEXT NOT NULL,
			constraints   INTEGER NOT NULL,
			wires         INTEGER NOT NULL,
			public_inputs JSONB NOT NULL DEFAULT '[]',
			verified      BOOLEAN NOT NULL DEFAULT FALSE,
			proof_data    BYTEA,
			curve         TEXT NOT NULL DEFAULT '',
			backend       TEXT NOT NULL DEFAULT '',
			failed_stage  TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create proof_runs table: %w", err)
	}
	return nil
}

// proofRunRepository is the PostgreSQL implementation.
type proofRunRepository struct {
	db *sql.DB
}

// NewProofRunRepository creates a repository instance.
func NewProofRunRepository(db *sql.DB) ProofRunRepository {
	return &proofRunRepository{db: db}
}

func (r *proofRunRepository) SaveRun(ctx context.Context, run *ProofRun) error {
	publicJSON, err := json.Marshal(run.PublicInputs)
	if err != nil {
		return fmt.Errorf("failed to marshal public inputs: %w", err)
	}

	query := `
		INSERT INTO proof_runs (
			id, circuit_name, constraints, wires, public_inputs, verified,
			proof_data, curve, backend, failed_stage, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.CircuitName, run.Constraints, run.Wires, publicJSON,
		run.Verified, run.ProofData, run.Curve, run.Backend,
		run.FailedStage, run.ErrorMessage, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert proof run: %w", err)
	}
	return nil
}

func (r *proofRunRepository) GetRun(ctx context.Context, id string) (*ProofRun, error) {
	query := `
		SELECT id, circuit_name, constraints, wires, public_inputs, verified,
		       proof_data, curve, backend, failed_stage, error_message, created_at
		FROM proof_runs WHERE id = $1
	`
	run := &ProofRun{}
	var publicJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.CircuitName, &run.Constraints, &run.Wires, &publicJSON,
		&run.Verified, &run.ProofData, &run.Curve, &run.Backend,
		&run.FailedStage, &run.ErrorMessage, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("proof run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proof run: %w", err)
	}
	if err := json.Unmarshal(publicJSON, &run.PublicInputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public inputs: %w", err)
	}
	return run, nil
}

func (r *proofRunRepository) ListRuns(ctx context.Context, limit int) ([]*ProofRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, circuit_name, constraints, wires, public_inputs, verified,
		       proof_data, curve, backend, failed_stage, error_message, created_at
		FROM proof_runs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list proof runs: %w", err)
	}
	defer rows.Close()

	var runs []*ProofRun
	for rows.Next() {
		run := &ProofRun{}
		var publicJSON []byte
		if err := rows.Scan(
			&run.ID, &run.CircuitName, &run.Constraints, &run.Wires, &publicJSON,
			&run.Verified, &run.ProofData, &run.Curve, &run.Backend,
			&run.FailedStage, &run.ErrorMessage, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan proof run: %w", err)
		}
		if err := json.Unmarshal(publicJSON, &run.PublicInputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal public inputs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
