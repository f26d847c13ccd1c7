// Package http exposes the montecarlo bounded context's REST surface under
// /v1/monte-carlo, per the external interfaces contract.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	configapp "github.com/aysen-hub/glpsim/internal/configuracion/application"
	"github.com/aysen-hub/glpsim/internal/montecarlo/application"
	"github.com/aysen-hub/glpsim/internal/montecarlo/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
	"github.com/aysen-hub/glpsim/pkg/logger"
)

// Handler wires the executor and the configuracion reader into the
// /v1/monte-carlo REST surface.
type Handler struct {
	executor *application.Executor
	configs  *configapp.Service
}

// NewHandler builds a montecarlo HTTP handler.
func NewHandler(executor *application.Executor, configs *configapp.Service) *Handler {
	return &Handler{executor: executor, configs: configs}
}

// RegisterRoutes mounts every /v1/monte-carlo endpoint onto router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	mc := router.Group("/monte-carlo")
	{
		mc.POST("/start", h.Start)
		mc.GET("/experiments", h.List)
		mc.GET("/experiments/:id", h.Get)
		mc.GET("/experiments/:id/progress", h.Progress)
		mc.DELETE("/experiments/:id", h.Delete)
		mc.GET("/experiments/:id/replicas", h.Replicas)
		mc.GET("/experiments/:id/anova", h.Anova)
		mc.GET("/experiments/:id/series-temporales", h.SeriesTemporales)
	}
}

type startRequest struct {
	ConfiguracionID int    `json:"configuracion_id" binding:"required"`
	NumReplicas     int    `json:"num_replicas" binding:"required"`
	MaxWorkers      int    `json:"max_workers" binding:"required"`
	Nombre          string `json:"nombre"`
}

// Start handles POST /start.
func (h *Handler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cfgRecord, err := h.configs.Get(ctx, uint(req.ConfiguracionID))
	if err != nil {
		writeError(c, err)
		return
	}
	simCfg, err := configapp.ToSimulationConfig(cfgRecord.Parameters)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.executor.Start(ctx, application.StartRequest{
		ConfigurationID: uint(req.ConfiguracionID),
		Config:          simCfg,
		NumReplicas:     req.NumReplicas,
		MaxWorkersCap:   req.MaxWorkers,
		Name:            req.Nombre,
		SeedBase:        simCfg.Seed,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exp)
}

// List handles GET /experiments.
func (h *Handler) List(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	// Listing reads the executor's own repository through lister().
	experiments, err := h.lister().List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, experiments)
}

// lister exposes the read-only experiment repository the handler needs for
// List/Get/Progress/Replicas — satisfied by the same repository the
// executor writes through.
func (h *Handler) lister() domain.ExperimentRepository {
	return h.executor.Repo()
}

// Get handles GET /experiments/{id}.
func (h *Handler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	exp, err := h.lister().GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}
	c.JSON(http.StatusOK, exp)
}

type progressResponse struct {
	ExperimentID                     uint    `json:"experiment_id"`
	Status                           string  `json:"status"`
	Progreso                        int     `json:"progreso"`
	ReplicasCompletadas              int     `json:"replicas_completadas"`
	ReplicasTotales                  int     `json:"replicas_totales"`
	TiempoTranscurridoSegundos       float64 `json:"tiempo_transcurrido_segundos"`
	TiempoEstimadoRestanteSegundos   *float64 `json:"tiempo_estimado_restante_segundos,omitempty"`
}

// Progress handles GET /experiments/{id}/progress.
func (h *Handler) Progress(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	exp, err := h.lister().GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}

	done := exp.RepliasCompleted()
	elapsed := exp.DurationSecond
	if exp.Status == domain.StatusRunning && exp.StartedAt != nil {
		elapsed = time.Since(*exp.StartedAt).Seconds()
	}
	resp := progressResponse{
		ExperimentID:               exp.ID,
		Status:                     string(exp.Status),
		Progreso:                   exp.ProgressPct,
		ReplicasCompletadas:        done,
		ReplicasTotales:            exp.NumReplicas,
		TiempoTranscurridoSegundos: elapsed,
	}
	if exp.Status == domain.StatusRunning {
		if eta, ok := application.EstimatedRemainingSeconds(elapsed, done, exp.NumReplicas); ok {
			resp.TiempoEstimadoRestanteSegundos = &eta
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /experiments/{id}: cancel if running, else hard
// delete.
func (h *Handler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	exp, err := h.lister().GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}

	if exp.Status == domain.StatusRunning || exp.Status == domain.StatusPending {
		if err := h.executor.Cancel(ctx, id, "cancelled by user"); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "failed", "error_mensaje": "cancelled by user"})
		return
	}

	if err := h.lister().Delete(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Replicas handles GET /experiments/{id}/replicas.
func (h *Handler) Replicas(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	exp, err := h.lister().GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}

	var completed []domain.Replica
	for _, r := range exp.Replicas {
		if r.Status == domain.StatusCompleted {
			completed = append(completed, r)
		}
	}
	c.JSON(http.StatusOK, completed)
}

// Anova handles GET /experiments/{id}/anova. It requires the experiment to
// be completed (checked here) and the factorial design to carry >=2 levels
// per factor (checked inside application.RunAnova); both surface as 412.
func (h *Handler) Anova(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	exp, err := h.lister().GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}
	if exp.Status != domain.StatusCompleted {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "experiment must be completed for ANOVA"})
		return
	}

	cfgRecord, err := h.configs.Get(c.Request.Context(), exp.ConfigurationID)
	if err != nil {
		writeError(c, err)
		return
	}
	simCfg, err := configapp.ToSimulationConfig(cfgRecord.Parameters)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	obs := application.ObservationsFromReplicas(exp.Replicas, simCfg.CapacityTM, simCfg.DisruptionMaxDays, func(k domain.Kpis) float64 {
		return k.ServiceLevelPct
	})
	result, err := application.RunAnova(obs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SeriesTemporales handles GET /experiments/{id}/series-temporales. It does
// not read persisted replicas at all: it re-runs num_muestras fresh
// replicas of the experiment's own configuration, keeping each one's daily
// time series, and aggregates mean/std/p5/p25/p50/p75/p95 per day plus
// stockout and route-blocked incidence. Reproducible seeding
// (seriesSampleSeed) means this resample is cheap and deterministic per
// call rather than requiring every one of up to 100000 replicas to have
// retained its own full day-by-day history.
func (h *Handler) SeriesTemporales(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	exp, err := h.lister().GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if exp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "experiment not found"})
		return
	}

	numMuestras, err := strconv.Atoi(c.DefaultQuery("num_muestras", "50"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "num_muestras must be an integer"})
		return
	}

	cfgRecord, err := h.configs.Get(c.Request.Context(), exp.ConfigurationID)
	if err != nil {
		writeError(c, err)
		return
	}
	simCfg, err := configapp.ToSimulationConfig(cfgRecord.Parameters)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	seedBase := simCfg.Seed
	series, err := application.RunSeriesTemporales(simCfg, seedBase, numMuestras)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"experiment_id": exp.ID,
		"num_muestras":  numMuestras,
		"series":        series,
	})
}

func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid experiment id")
	}
	return uint(id), nil
}

func writeError(c *gin.Context, err error) {
	logger.Error(c.Request.Context(), "request failed", "error", err)
	switch {
	case apperr.Is(err, apperr.KindValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case apperr.Is(err, apperr.KindNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.Is(err, apperr.KindPrecondition):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
