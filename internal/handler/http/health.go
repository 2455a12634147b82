package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/response"
)

// Pinger is satisfied by the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	ModelTrained      bool   `json:"ml_model_trained"`
}

type HealthHandler struct {
	db                 Pinger
	performanceService performance.PerformanceService
}

func NewHealthHandler(db Pinger, performanceService performance.PerformanceService) *HealthHandler {
	return &HealthHandler{db: db, performanceService: performanceService}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy"}
	resp.DatabaseConnected = h.db.Ping(ctx) == nil
	if info, err := h.performanceService.ModelInfo(ctx); err == nil {
		resp.ModelTrained = info.ModelTrained
	}
	if !resp.DatabaseConnected {
		resp.Status = "degraded"
	}

	response.Success(w, resp)
}
