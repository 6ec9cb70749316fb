package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/service"
	"github.com/jengzang/crash-records-backend-go/internal/store"
	"github.com/jengzang/crash-records-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for collision statistics
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetFilters handles GET /api/filters
func (h *StatsHandler) GetFilters(c *gin.Context) {
	filters, err := h.statsService.GetFilters(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, filters)
}

// GetStats handles POST /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	var spec models.FilterSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		response.BadRequest(c, "Invalid filter body", err)
		return
	}

	result, err := h.statsService.GetStats(c.Request.Context(), spec)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, result)
}

// Search handles POST /api/search
func (h *StatsHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid search body", err)
		return
	}

	result, err := h.statsService.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, result)
}

// GetData handles GET /api/data?limit=
func (h *StatsHandler) GetData(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, "Invalid limit parameter")
			return
		}
		limit = n
	}

	sample, err := h.statsService.GetSample(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, sample)
}

// Health handles GET /api/health
func (h *StatsHandler) Health(c *gin.Context) {
	health := h.statsService.Health(c.Request.Context())
	if !health.DataLoaded {
		response.Unavailable(c, "dataset not loaded", health)
		return
	}

	response.Success(c, health)
}

func (h *StatsHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotLoaded) {
		response.Unavailable(c, err.Error(), nil)
		return
	}
	response.InternalError(c, "Failed to process request", err)
}
