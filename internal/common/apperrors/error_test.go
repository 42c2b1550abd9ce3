package apperrors_test

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
)

func TestErrorChaining(t *testing.T) {
	base := apperrors.New("pipeline error")
	assert.Equal(t, "pipeline error", base.Error())
	assert.ErrorIs(t, base, base)

	derived := base.New("assignment rejected")
	assert.Equal(t, "assignment rejected", derived.Error())
	assert.ErrorIs(t, derived, base)

	cause := errors.New("connection reset")
	wrapped := derived.MsgErr("insert failed", cause)
	assert.Equal(t, "insert failed", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.ErrorIs(t, wrapped, cause)
}

func TestStatusCodePropagation(t *testing.T) {
	base := apperrors.New("pipeline error").SetStatusCode(http.StatusInternalServerError)
	assert.Equal(t, http.StatusInternalServerError, base.StatusCode())

	// A derived error keeps the parent's code until it sets its own.
	derived := base.New("stale assignment")
	assert.Equal(t, http.StatusInternalServerError, derived.StatusCode())
	notFound := derived.SetStatusCode(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode())
	assert.ErrorIs(t, notFound, base)
}

// The store and manager taxonomies both hang off a single base per package,
// so handlers can match broadly or narrowly.
func TestTaxonomyAncestry(t *testing.T) {
	assert.ErrorIs(t, dberror.ErrNotFound, dberror.ErrDatabase)
	assert.ErrorIs(t, dberror.ErrAlreadyExists, dberror.ErrDatabase)
	assert.Equal(t, http.StatusNotFound, dberror.ErrNotFound.StatusCode())
	assert.Equal(t, http.StatusConflict, dberror.ErrAlreadyExists.StatusCode())

	assert.ErrorIs(t, checkmanager.ErrAssignmentNotFound, checkmanager.ErrCheckManager)
	assert.ErrorIs(t, checkmanager.ErrInvalidTargetSpec, checkmanager.ErrCheckManager)
	assert.Equal(t, http.StatusNotFound, checkmanager.ErrAssignmentNotFound.StatusCode())
	assert.Equal(t, http.StatusConflict, checkmanager.ErrNotConfigured.StatusCode())
}

// Recording maps a store miss onto the manager taxonomy while keeping the
// store ancestry matchable.
func TestCrossTaxonomyWrap(t *testing.T) {
	miss := dberror.ErrNotFound.Msg("assignment not found")
	wrapped := checkmanager.ErrAssignmentNotFound.Err(miss)

	assert.ErrorIs(t, wrapped, checkmanager.ErrCheckManager)
	assert.ErrorIs(t, wrapped, dberror.ErrDatabase)
	assert.Equal(t, http.StatusNotFound, wrapped.StatusCode())
	assert.Equal(t, "assignment not found", wrapped.Error())
}
