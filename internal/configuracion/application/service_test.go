package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/configuracion/application"
	"github.com/aysen-hub/glpsim/internal/configuracion/domain"
)

// fakeRepo is an in-memory domain.Repository for exercising Service without
// a database.
type fakeRepo struct {
	byID map[uint]*domain.Configuracion
	next uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uint]*domain.Configuracion), next: 1}
}

func (f *fakeRepo) Save(ctx context.Context, c *domain.Configuracion) error {
	if c.ID == 0 {
		c.ID = f.next
		f.next++
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uint) (*domain.Configuracion, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeRepo) List(ctx context.Context, skip, limit int) ([]domain.Configuracion, error) {
	var out []domain.Configuracion
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) Exists(ctx context.Context, id uint) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

func TestService_CreateRequiresNombre(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	err := svc.Create(context.Background(), &domain.Configuracion{})
	assert.Error(t, err)
}

func TestService_CreateThenGet(t *testing.T) {
	repo := newFakeRepo()
	svc := application.NewService(repo)

	cfg := &domain.Configuracion{Nombre: "SQ_Short", Parameters: map[string]any{"capacity_tm": 431.0}}
	require.NoError(t, svc.Create(context.Background(), cfg))
	assert.NotZero(t, cfg.ID)

	got, err := svc.Get(context.Background(), cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "SQ_Short", got.Nombre)
}

func TestService_GetMissingReturnsNotFound(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	_, err := svc.Get(context.Background(), 999)
	assert.Error(t, err)
}

func TestService_DeleteMissingReturnsNotFound(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	err := svc.Delete(context.Background(), 999)
	assert.Error(t, err)
}

func TestService_DeleteExisting(t *testing.T) {
	repo := newFakeRepo()
	svc := application.NewService(repo)
	cfg := &domain.Configuracion{Nombre: "P_Long"}
	require.NoError(t, svc.Create(context.Background(), cfg))

	require.NoError(t, svc.Delete(context.Background(), cfg.ID))
	exists, _ := repo.Exists(context.Background(), cfg.ID)
	assert.False(t, exists)
}
