// Package mysql implements the configuracion domain's Repository over GORM.
package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aysen-hub/glpsim/internal/configuracion/domain"
)

// ConfiguracionModel is the configuraciones table row. Parameters is stored
// as a JSON blob; the configuracion context never queries into it.
type ConfiguracionModel struct {
	gorm.Model
	Nombre         string `gorm:"column:nombre;type:varchar(200);not null;uniqueIndex"`
	Descripcion    string `gorm:"type:text"`
	ParametersJSON string `gorm:"column:parameters_json;type:longtext"`
}

func (ConfiguracionModel) TableName() string { return "configuraciones" }

func (m *ConfiguracionModel) toDomain() (*domain.Configuracion, error) {
	params := map[string]any{}
	if m.ParametersJSON != "" {
		if err := json.Unmarshal([]byte(m.ParametersJSON), &params); err != nil {
			return nil, fmt.Errorf("decoding configuracion %d parameters: %w", m.ID, err)
		}
	}
	return &domain.Configuracion{
		ID:          m.ID,
		Nombre:      m.Nombre,
		Descripcion: m.Descripcion,
		Parameters:  params,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// RepositoryImpl implements domain.Repository over GORM.
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository wires a GORM handle into the configuracion domain's
// repository interface.
func NewRepository(db *gorm.DB) domain.Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Save(ctx context.Context, c *domain.Configuracion) error {
	payload, err := json.Marshal(c.Parameters)
	if err != nil {
		return fmt.Errorf("encoding configuracion parameters: %w", err)
	}
	model := &ConfiguracionModel{
		Nombre:         c.Nombre,
		Descripcion:    c.Descripcion,
		ParametersJSON: string(payload),
	}
	if c.ID != 0 {
		model.Model.ID = c.ID
		if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
			return fmt.Errorf("updating configuracion %d: %w", c.ID, err)
		}
	} else {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return fmt.Errorf("creating configuracion: %w", err)
		}
	}
	c.ID = model.ID
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Configuracion, error) {
	var model ConfiguracionModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading configuracion %d: %w", id, err)
	}
	return model.toDomain()
}

func (r *RepositoryImpl) List(ctx context.Context, skip, limit int) ([]domain.Configuracion, error) {
	var models []ConfiguracionModel
	if err := r.db.WithContext(ctx).Order("id DESC").Offset(skip).Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing configuraciones: %w", err)
	}
	out := make([]domain.Configuracion, 0, len(models))
	for _, m := range models {
		c, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&ConfiguracionModel{}, id).Error; err != nil {
		return fmt.Errorf("deleting configuracion %d: %w", id, err)
	}
	return nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ConfiguracionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking configuracion %d existence: %w", id, err)
	}
	return count > 0, nil
}
