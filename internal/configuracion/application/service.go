// Package application implements the configuracion CRUD use cases: create,
// fetch, list, and delete named parameter sets. This is glue (§1's
// out-of-scope CRUD surface), kept deliberately thin.
package application

import (
	"context"
	"fmt"

	"github.com/aysen-hub/glpsim/internal/configuracion/domain"
	"github.com/aysen-hub/glpsim/pkg/apperr"
	"github.com/aysen-hub/glpsim/pkg/logger"
)

// Service is the configuracion use-case layer.
type Service struct {
	repo domain.Repository
}

// NewService wires the configuracion repository into the use-case layer.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a new configuration.
func (s *Service) Create(ctx context.Context, c *domain.Configuracion) error {
	if c.Nombre == "" {
		return apperr.Validation("nombre is required")
	}
	if err := s.repo.Save(ctx, c); err != nil {
		logger.Error(ctx, "failed to save configuracion", "nombre", c.Nombre, "error", err)
		return fmt.Errorf("saving configuracion: %w", err)
	}
	return nil
}

// Get fetches one configuration by ID.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Configuracion, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading configuracion %d: %w", id, err)
	}
	if c == nil {
		return nil, apperr.NotFound("configuracion %d not found", id)
	}
	return c, nil
}

// List returns a page of configurations.
func (s *Service) List(ctx context.Context, skip, limit int) ([]domain.Configuracion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, skip, limit)
}

// Delete removes a configuration. The configuracion context does not track
// which experiments reference it; callers that need referential integrity
// enforce it at the montecarlo boundary (admission already verifies
// existence, not deletion-safety).
func (s *Service) Delete(ctx context.Context, id uint) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("checking configuracion %d existence: %w", id, err)
	}
	if !exists {
		return apperr.NotFound("configuracion %d not found", id)
	}
	return s.repo.Delete(ctx, id)
}
