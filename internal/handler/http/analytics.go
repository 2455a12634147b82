package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/validator"
)

const defaultRankingLimit = 10

type AnalyticsHandler interface {
	Overview(w http.ResponseWriter, r *http.Request)
	TeamPerformance(w http.ResponseWriter, r *http.Request)
	ProductivityRanking(w http.ResponseWriter, r *http.Request)
	DailyTrends(w http.ResponseWriter, r *http.Request)
}

type analyticsHandlerImpl struct {
	analyticsService   analytics.AnalyticsService
	performanceService performance.PerformanceService
}

func NewAnalyticsHandler(analyticsService analytics.AnalyticsService, performanceService performance.PerformanceService) AnalyticsHandler {
	return &analyticsHandlerImpl{
		analyticsService:   analyticsService,
		performanceService: performanceService,
	}
}

// Overview handles GET /analytics/overview
func (h *analyticsHandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.analyticsService.Overview(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// TeamPerformance handles GET /analytics/team/performance
func (h *analyticsHandlerImpl) TeamPerformance(w http.ResponseWriter, r *http.Request) {
	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.TeamPerformance(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ProductivityRanking handles GET /analytics/productivity/ranking
func (h *analyticsHandlerImpl) ProductivityRanking(w http.ResponseWriter, r *http.Request) {
	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, ok := validator.IsIntInRange(raw, 1, 1000)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "limit", Message: "limit must be between 1 and 1000"}})
			return
		}
		limit = n
	}

	result, err := h.performanceService.ProductivityRanking(r.Context(), period, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DailyTrends handles GET /analytics/trends/daily
func (h *analyticsHandlerImpl) DailyTrends(w http.ResponseWriter, r *http.Request) {
	period, err := dateRangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.analyticsService.DailyTrends(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
