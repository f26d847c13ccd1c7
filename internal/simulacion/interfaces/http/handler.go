// Package http exposes the single-simulation endpoint: POST
// /v1/simulation/run, a direct call into the replica driver with the full
// KPI record and time series returned inline (§6).
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	simapp "github.com/aysen-hub/glpsim/internal/simulation/application"
	simdomain "github.com/aysen-hub/glpsim/internal/simulation/domain"
	"github.com/aysen-hub/glpsim/pkg/logger"
)

// Handler exposes the single-run endpoint. It has no persistence
// dependency: a single simulation run is not an Experiment and is never
// stored.
type Handler struct{}

// NewHandler builds the simulacion HTTP handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts /simulation/run onto router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/simulation/run", h.Run)
}

type runResponse struct {
	Kpis       simdomain.Kpis          `json:"kpis"`
	TimeSeries []simdomain.DailyMetrics `json:"time_series"`
}

// Run handles POST /simulation/run: validates the posted SimulationConfig,
// runs it once, and returns the KPI record plus the full per-day series.
func (h *Handler) Run(c *gin.Context) {
	var cfg simdomain.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if warning, err := cfg.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	} else if warning != "" {
		logger.Warn(c.Request.Context(), warning)
	}

	result := simapp.RunReplica(cfg, 1, true)
	if result.Status == simapp.ReplicaFailed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.ErrorMessage})
		return
	}

	c.JSON(http.StatusOK, runResponse{
		Kpis:       *result.Kpis,
		TimeSeries: result.TimeSeries,
	})
}
