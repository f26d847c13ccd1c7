// Package domain holds the Configuracion entity: a named, reusable
// SimulationConfig parameter set that experiments and single-simulation
// runs reference by ID instead of inlining every field on every request.
package domain

import (
	"context"
	"time"
)

// Configuracion is a saved, named parameter set. Parameters carries the
// serialized SimulationConfig fields; the configuracion bounded context
// does not interpret them beyond storage and retrieval — parsing into a
// simulation.Config happens at the simulacion/montecarlo boundary.
type Configuracion struct {
	ID          uint
	Nombre      string
	Descripcion string
	Parameters  map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository is the persistence port for configurations.
type Repository interface {
	Save(ctx context.Context, c *Configuracion) error
	GetByID(ctx context.Context, id uint) (*Configuracion, error)
	List(ctx context.Context, skip, limit int) ([]Configuracion, error)
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}
