package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aysen-hub/glpsim/pkg/apperr"
)

func TestIs_MatchesKind(t *testing.T) {
	err := apperr.NotFound("configuracion %d not found", 7)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.False(t, apperr.Is(err, apperr.KindValidation))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, apperr.Is(errors.New("plain"), apperr.KindValidation))
}

func TestIs_UnwrapsThroughFmtErrorf(t *testing.T) {
	base := apperr.Precondition("too few replicas")
	wrapped := fmt.Errorf("running anova: %w", base)
	assert.True(t, apperr.Is(wrapped, apperr.KindPrecondition))
}

func TestReplica_CarriesCause(t *testing.T) {
	cause := errors.New("capacity_tm must be positive")
	err := apperr.Replica(cause)
	assert.True(t, apperr.Is(err, apperr.KindReplica))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "capacity_tm must be positive")
}
