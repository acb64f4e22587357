package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/upb/teach-portal/backend/repositories"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     string            `json:"timestamp"`
	SchemaVersion *uint             `json:"schemaVersion,omitempty"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker reports connectivity and migration state
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
	SchemaStatus(ctx context.Context) (repositories.SchemaStatus, error)
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	db     DatabaseChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db skips the
// database checks.
func NewHealthHandler(db DatabaseChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleReadiness handles GET /health/ready. The service is ready once the
// database answers and every embedded migration has been applied cleanly.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{},
	}

	if h.db != nil {
		response.Checks["database"] = "healthy"
		response.Checks["schema"] = "skipped"

		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			response.Checks["database"] = "unhealthy"
		} else {
			h.checkSchema(ctx, &response)
		}

		if response.Checks["database"] != "healthy" || response.Checks["schema"] != "healthy" {
			response.Status = "unhealthy"
		}
	}

	httpStatus := http.StatusOK
	if response.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkSchema(ctx context.Context, response *HealthResponse) {
	status, err := h.db.SchemaStatus(ctx)
	if err != nil {
		h.logger.Warn("schema version check failed", zap.Error(err))
		response.Checks["schema"] = "unknown"
		return
	}

	version := status.Version
	response.SchemaVersion = &version

	switch {
	case status.Dirty:
		h.logger.Warn("schema is dirty", zap.Uint("version", status.Version))
		response.Checks["schema"] = "dirty"
	case !status.Current():
		response.Checks["schema"] = "pending migrations to " + strconv.FormatUint(uint64(status.Latest), 10)
	default:
		response.Checks["schema"] = "healthy"
	}
}
