package apis

import (
	"net/http"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
)

func listStatus(r *http.Request) (*httpx.Response, error) {
	statuses, err := checkmanager.StatusForAll(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: statuses}, nil
}

func getAssetStatus(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetID")
	if err != nil {
		return nil, err
	}
	status, cmErr := checkmanager.StatusForAsset(r.Context(), id)
	if cmErr != nil {
		return nil, cmErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: status}, nil
}
