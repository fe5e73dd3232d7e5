package handlers

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/api/middleware"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/backend"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/common/health"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/pipeline"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/storage/postgres"
)

// ============================================================================
// HTTP Request/Response Models
// ============================================================================

type ProveRequest struct {
	Circuit string `json:"circuit"`
}

type ProveResponse struct {
	Success      bool     `json:"success"`
	RunID        string   `json:"run_id,omitempty"`
	CircuitName  string   `json:"circuit_name"`
	Constraints  int      `json:"constraints"`
	Wires        int      `json:"wires"`
	PublicInputs []string `json:"public_inputs"`
	Proof        string   `json:"proof"`
	Curve        string   `json:"curve"`
	Backend      string   `json:"backend"`
	Verified     bool     `json:"verified"`
	RequestID    string   `json:"request_id,omitempty"`
}

type RunResponse struct {
	Success      bool     `json:"success"`
	RunID        string   `json:"run_id"`
	CircuitName  string   `json:"circuit_name"`
	Constraints  int      `json:"constraints"`
	Wires        int      `json:"wires"`
	PublicInputs []string `json:"public_inputs"`
	Verified     bool     `json:"verified"`
	FailedStage  string   `json:"failed_stage,omitempty"`
	Error        string   `json:"error,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ============================================================================
// CircuitHandler
// ============================================================================

// CircuitHandler serves the prove endpoint and the proof-run history. Each
// prove request gets its own backend instance: Groth16 setup is
// circuit-specific, and requests must not share mutable prover state.
type CircuitHandler struct {
	newProver func() (backend.Prover, error)
	runs      postgres.ProofRunRepository // nil when storage is disabled
	db        *sql.DB                     // nil when storage is disabled
	checker   *health.Checker
	logger    *zap.Logger
}

func NewCircuitHandler(
	newProver func() (backend.Prover, error),
	runs postgres.ProofRunRepository,
	db *sql.DB,
	logger *zap.Logger,
) *CircuitHandler {
	return &CircuitHandler{
		newProver: newProver,
		runs:      runs,
		db:        db,
		checker:   health.NewChecker(logger),
		logger:    logger,
	}
}

// ProveCircuit runs the full pipeline synchronously: parse, compile,
// setup, witness, prove, verify.
func (h *CircuitHandler) ProveCircuit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req ProveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "", "invalid request body", requestID)
		return
	}
	if len(req.Circuit) == 0 {
		h.respondError(w, http.StatusBadRequest, "", "circuit text is required", requestID)
		return
	}

	h.logger.Info("received prove request",
		zap.Int("circuit_bytes", len(req.Circuit)),
		zap.String("request_id", requestID),
	)

	prover, err := h.newProver()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "", err.Error(), requestID)
		return
	}

	runner := pipeline.NewRunner(prover, h.logger)
	result, err := runner.Run(strings.NewReader(req.Circuit))
	if err != nil {
		stage, status := classifyError(err)
		h.saveFailedRun(r, result, stage, err)
		h.respondError(w, status, stage, err.Error(), requestID)
		return
	}

	runID := h.saveRun(r, result)

	resp := ProveResponse{
		Success:      true,
		RunID:        runID,
		CircuitName:  result.Circuit.Name,
		Constraints:  result.System.NbConstraints(),
		Wires:        result.System.NbWires,
		PublicInputs: result.Proof.PublicInputs,
		Proof:        hex.EncodeToString(result.Proof.ProofData),
		Curve:        result.Proof.Curve,
		Backend:      result.Proof.Backend,
		Verified:     result.Verified,
		RequestID:    requestID,
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// GetRun returns a persisted proof run by ID.
func (h *CircuitHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.runs == nil {
		h.respondError(w, http.StatusNotImplemented, "", "proof-run storage is disabled", requestID)
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, http.StatusBadRequest, "", "invalid run id", requestID)
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "", err.Error(), requestID)
		return
	}
	h.respondJSON(w, http.StatusOK, runToResponse(run))
}

// ListRuns returns the most recent proof runs.
func (h *CircuitHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.runs == nil {
		h.respondError(w, http.StatusNotImplemented, "", "proof-run storage is disabled", requestID)
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), 50)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "", err.Error(), requestID)
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runToResponse(run))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "runs": out})
}

// HealthCheck reports service and dependency health.
func (h *CircuitHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sys := h.checker.CheckAll(r.Context(), h.db)
	status := http.StatusOK
	if !sys.Healthy {
		status = http.StatusServiceUnavailable
	}
	h.respondJSON(w, status, sys)
}

// ============================================================================
// Helpers
// ============================================================================

// classifyError maps a pipeline failure to its stage and HTTP status.
// Circuit-side failures (bad text, unsatisfiable instance) are client
// errors; backend failures are server errors.
func classifyError(err error) (string, int) {
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		return "", http.StatusInternalServerError
	}
	switch se.Stage {
	case pipeline.StageParse, pipeline.StageCompile, pipeline.StageWitness:
		return string(se.Stage), http.StatusUnprocessableEntity
	default:
		return string(se.Stage), http.StatusInternalServerError
	}
}

func runToResponse(run *postgres.ProofRun) RunResponse {
	return RunResponse{
		Success:      true,
		RunID:        run.ID,
		CircuitName:  run.CircuitName,
		Constraints:  run.Constraints,
		Wires:        run.Wires,
		PublicInputs: run.PublicInputs,
		Verified:     run.Verified,
		FailedStage:  run.FailedStage,
		Error:        run.ErrorMessage,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
	}
}

// saveRun persists a successful run; returns the run ID, or "" when storage
// is disabled or the insert fails (persistence is best-effort, the proof
// was already produced).
func (h *CircuitHandler) saveRun(r *http.Request, result *pipeline.Result) string {
	if h.runs == nil {
		return ""
	}
	run := &postgres.ProofRun{
		ID:           uuid.New().String(),
		CircuitName:  result.Circuit.Name,
		Constraints:  result.System.NbConstraints(),
		Wires:        result.System.NbWires,
		PublicInputs: result.Proof.PublicInputs,
		Verified:     result.Verified,
		ProofData:    result.Proof.ProofData,
		Curve:        result.Proof.Curve,
		Backend:      result.Proof.Backend,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.logger.Error("failed to persist proof run", zap.Error(err))
		return ""
	}
	return run.ID
}

func (h *CircuitHandler) saveFailedRun(r *http.Request, result *pipeline.Result, stage string, cause error) {
	if h.runs == nil {
		return
	}
	run := &postgres.ProofRun{
		ID:           uuid.New().String(),
		FailedStage:  stage,
		ErrorMessage: cause.Error(),
		CreatedAt:    time.Now().UTC(),
	}
	if result != nil && result.Circuit != nil {
		run.CircuitName = result.Circuit.Name
	}
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.logger.Error("failed to persist failed run", zap.Error(err))
	}
}

func (h *CircuitHandler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *CircuitHandler) respondError(w http.ResponseWriter, status int, stage, msg, requestID string) {
	h.logger.Warn("request failed",
		zap.Int("status", status),
		zap.String("stage", stage),
		zap.String("error", msg),
		zap.String("request_id", requestID),
	)
	h.respondJSON(w, status, ErrorResponse{
		Success:   false,
		Stage:     stage,
		Error:     msg,
		RequestID: requestID,
	})
}
