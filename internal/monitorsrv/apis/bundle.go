package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
)

// getBundle generates a signed offline snapshot for the org unit named by
// its external code. 404 for an unknown unit; 409 when the unit exists but
// has no routing code.
func getBundle(r *http.Request) (*httpx.Response, error) {
	code := chi.URLParam(r, "orgUnitCode")
	if code == "" {
		return nil, httpx.ErrInvalidRequest("missing org unit code")
	}
	bundle, err := checkmanager.GenerateBundle(r.Context(), code)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: bundle}, nil
}
