package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysen-hub/glpsim/internal/configuracion/application"
	"github.com/aysen-hub/glpsim/internal/configuracion/domain"
	confhttp "github.com/aysen-hub/glpsim/internal/configuracion/interfaces/http"
)

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

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1")
	svc := application.NewService(newFakeRepo())
	confhttp.NewHandler(svc).RegisterRoutes(v1)
	return r
}

func TestConfiguracion_CreateThenGet(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(map[string]any{
		"nombre":     "SQ_Short",
		"parameters": map[string]any{"capacity_tm": 431.0},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/configuraciones", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Configuracion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/configuraciones/1", nil)
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
}

func TestConfiguracion_GetMissing_Returns404(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/configuraciones/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfiguracion_CreateMissingNombre_Returns422(t *testing.T) {
	router := newTestRouter()
	body, _ := json.Marshal(map[string]any{"parameters": map[string]any{"capacity_tm": 431.0}})
	req := httptest.NewRequest(http.MethodPost, "/v1/configuraciones", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestConfiguracion_DeleteMissing_Returns404(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodDelete, "/v1/configuraciones/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
