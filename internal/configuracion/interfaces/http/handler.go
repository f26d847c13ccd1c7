// Package http exposes configuracion CRUD over REST — glue per §1, not
// core, but still served the teacher's way: thin Gin handlers delegating
// straight to the application service.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aysen-hub/glpsim/internal/configuracion/application"
	"github.com/aysen-hub/glpsim/internal/configuracion/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
	"github.com/aysen-hub/glpsim/pkg/logger"
)

// Handler exposes /v1/configuraciones.
type Handler struct {
	svc *application.Service
}

// NewHandler builds a configuracion HTTP handler.
func NewHandler(svc *application.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the configuracion CRUD endpoints onto router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	cfg := router.Group("/configuraciones")
	{
		cfg.POST("", h.Create)
		cfg.GET("", h.List)
		cfg.GET("/:id", h.Get)
		cfg.DELETE("/:id", h.Delete)
	}
}

type createRequest struct {
	Nombre      string         `json:"nombre" binding:"required"`
	Descripcion string         `json:"descripcion"`
	Parameters  map[string]any `json:"parameters" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	cfg := &domain.Configuracion{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Parameters:  req.Parameters,
	}
	if err := h.svc.Create(c.Request.Context(), cfg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *Handler) List(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.svc.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	cfg, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid configuracion id")
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
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
