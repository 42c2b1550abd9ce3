package checkmanager

import (
	"net/http"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
)

var (
	ErrCheckManager apperrors.Error = apperrors.New("unable to process request").SetStatusCode(http.StatusInternalServerError)

	// ErrInvalidTargetSpec: the caller supplied both or neither of explicit
	// asset ids and criteria.
	ErrInvalidTargetSpec apperrors.Error = ErrCheckManager.New("exactly one of asset ids or criteria must be supplied").SetStatusCode(http.StatusBadRequest)

	// ErrAssignmentNotFound signals the executor holds stale configuration.
	// It is always surfaced as a not-found condition, never masked as a
	// generic store failure.
	ErrAssignmentNotFound apperrors.Error = ErrCheckManager.New("assignment not found").SetStatusCode(http.StatusNotFound)

	// ErrValidationFailure: a malformed or missing required field in one item.
	ErrValidationFailure apperrors.Error = ErrCheckManager.New("validation failure").SetStatusCode(http.StatusBadRequest)

	// ErrStoreFailure: the transactional store itself rejected an operation.
	ErrStoreFailure apperrors.Error = ErrCheckManager.New("store failure").SetStatusCode(http.StatusInternalServerError)

	// ErrNotConfigured: the org unit has no routing code, so no offline
	// bundle can be generated for it. Distinct from not-found.
	ErrNotConfigured apperrors.Error = ErrCheckManager.New("org unit has no routing code configured").SetStatusCode(http.StatusConflict)

	ErrInvalidRequest apperrors.Error = ErrCheckManager.New("invalid request").SetStatusCode(http.StatusBadRequest)
)
