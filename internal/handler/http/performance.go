package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PerformanceHandler interface {
	// Clustering (manager only)
	Analyze(w http.ResponseWriter, r *http.Request)
	QuickAnalysis(w http.ResponseWriter, r *http.Request)
	MonthlyAnalysis(w http.ResponseWriter, r *http.Request)
	QuarterlyAnalysis(w http.ResponseWriter, r *http.Request)
	BatchPredict(w http.ResponseWriter, r *http.Request)
	ResetModel(w http.ResponseWriter, r *http.Request)

	// Per employee
	Predict(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
	Insights(w http.ResponseWriter, r *http.Request)

	ModelInfo(w http.ResponseWriter, r *http.Request)
}

type performanceHandlerImpl struct {
	performanceService performance.PerformanceService
	defaultClusters    int
}

func NewPerformanceHandler(performanceService performance.PerformanceService, defaultClusters int) PerformanceHandler {
	return &performanceHandlerImpl{
		performanceService: performanceService,
		defaultClusters:    defaultClusters,
	}
}

// Analyze handles POST /ml/clustering/analyze
func (h *performanceHandlerImpl) Analyze(w http.ResponseWriter, r *http.Request) {
	var req performance.ClusteringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	params, err := req.ToParams(h.defaultClusters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.FitAndCluster(r.Context(), params)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// QuickAnalysis handles GET /ml/clustering/quick-analysis over all active workers
func (h *performanceHandlerImpl) QuickAnalysis(w http.ResponseWriter, r *http.Request) {
	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	k, err := clustersFromQuery(r, h.defaultClusters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.FitAndCluster(r.Context(), performance.FitParams{
		Range:     period,
		NClusters: k,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MonthlyAnalysis handles POST /ml/clustering/monthly?year=2024&month=1
func (h *performanceHandlerImpl) MonthlyAnalysis(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors

	year, ok := validator.IsIntInRange(r.URL.Query().Get("year"), 1970, 9999)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a four digit number"})
	}
	month, ok := validator.IsIntInRange(r.URL.Query().Get("month"), 1, 12)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	k, err := clustersFromQuery(r, h.defaultClusters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.MonthlyAnalysis(r.Context(), year, time.Month(month), k)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// QuarterlyAnalysis handles POST /ml/clustering/quarterly?year=2024&quarter=1
func (h *performanceHandlerImpl) QuarterlyAnalysis(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors

	year, ok := validator.IsIntInRange(r.URL.Query().Get("year"), 1970, 9999)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a four digit number"})
	}
	quarter, ok := validator.IsIntInRange(r.URL.Query().Get("quarter"), 1, 4)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "quarter", Message: "quarter must be between 1 and 4"})
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	k, err := clustersFromQuery(r, h.defaultClusters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.QuarterlyAnalysis(r.Context(), year, quarter, k)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// BatchPredict handles POST /ml/clustering/batch-predict
func (h *performanceHandlerImpl) BatchPredict(w http.ResponseWriter, r *http.Request) {
	var req performance.BatchPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	period, err := performance.ParseDateRange(deref(req.DateFrom), deref(req.DateTo))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.performanceService.BatchPredict(r.Context(), req.UserIDs, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ResetModel handles DELETE /ml/clustering/model?n_clusters=3
func (h *performanceHandlerImpl) ResetModel(w http.ResponseWriter, r *http.Request) {
	k, err := clustersFromQuery(r, h.defaultClusters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.performanceService.ResetModel(r.Context(), k); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Model reset", map[string]int{"n_clusters": k})
}

// Predict handles GET /ml/clustering/user/{user_id}/predict
func (h *performanceHandlerImpl) Predict(w http.ResponseWriter, r *http.Request) {
	employeeID, period, ok := h.employeeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.performanceService.PredictOne(r.Context(), employeeID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Metrics handles GET /ml/performance/{user_id}/metrics
func (h *performanceHandlerImpl) Metrics(w http.ResponseWriter, r *http.Request) {
	employeeID, period, ok := h.employeeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.performanceService.Metrics(r.Context(), employeeID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Insights handles GET /ml/performance/{user_id}/insights
func (h *performanceHandlerImpl) Insights(w http.ResponseWriter, r *http.Request) {
	employeeID, period, ok := h.employeeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.performanceService.Explain(r.Context(), employeeID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ModelInfo handles GET /ml/clustering/model-info
func (h *performanceHandlerImpl) ModelInfo(w http.ResponseWriter, r *http.Request) {
	result, err := h.performanceService.ModelInfo(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// employeeRequest reads {user_id} and the date range, and checks the caller
// may see that employee. It writes the error response itself.
func (h *performanceHandlerImpl) employeeRequest(w http.ResponseWriter, r *http.Request) (string, performance.DateRange, bool) {
	employeeID := chi.URLParam(r, "user_id")
	if validator.IsEmpty(employeeID) {
		response.BadRequest(w, "user_id is required", nil)
		return "", performance.DateRange{}, false
	}

	caller, err := middleware.CallerFrom(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return "", performance.DateRange{}, false
	}
	if !caller.CanView(employeeID) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return "", performance.DateRange{}, false
	}

	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return "", performance.DateRange{}, false
	}
	return employeeID, period, true
}

func dateRangeFromQuery(r *http.Request) (performance.DateRange, error) {
	q := r.URL.Query()
	return performance.ParseDateRange(q.Get("date_from"), q.Get("date_to"))
}

func clustersFromQuery(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("n_clusters")
	if raw == "" {
		return fallback, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validator.ValidationErrors{{Field: "n_clusters", Message: "n_clusters must be an integer"}}
	}
	return k, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
