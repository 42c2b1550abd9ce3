package apis

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// postResult records one result. 201 on success; an unknown assignment id is
// 404 so agents can detect stale configuration and re-pull.
func postResult(r *http.Request) (*httpx.Response, error) {
	var in checkmanager.RecordInput
	if err := httpx.GetRequestData(r, &in); err != nil {
		return nil, err
	}

	res, err := checkmanager.Record(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/results/" + strconv.FormatInt(res.ResultID, 10),
		Response: map[string]any{
			"resultId":   res.ResultID,
			"receivedAt": res.ReceivedAt,
		},
	}, nil
}

type batchEnvelope struct {
	ConfigVersion   string                `json:"configVersion,omitempty"`
	ExecutorVersion string                `json:"executorVersion,omitempty"`
	BundleToken     string                `json:"bundleToken,omitempty"`
	Items           []jsoniter.RawMessage `json:"items"`
}

// sharedVersions merges the envelope's explicit version tags with the claims
// of a presented bundle token. An explicit configVersion wins over the
// token's; a token that fails verification rejects the whole envelope.
func sharedVersions(envelope batchEnvelope) (checkmanager.Versions, error) {
	shared := checkmanager.Versions{
		ConfigVersion:   envelope.ConfigVersion,
		ExecutorVersion: envelope.ExecutorVersion,
	}
	if envelope.BundleToken == "" {
		return shared, nil
	}
	claims, err := checkmanager.VerifyBundleToken(envelope.BundleToken)
	if err != nil {
		return shared, err
	}
	if shared.ConfigVersion == "" {
		shared.ConfigVersion = claims.ConfigVersion
	}
	return shared, nil
}

// postResultsBatch ingests a batch. Per-item failures never fail the HTTP
// call; the response is a 2xx multi-status envelope with per-item outcomes.
// Only a malformed or oversized envelope is a top-level client error.
func postResultsBatch(r *http.Request) (*httpx.Response, error) {
	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	body, readErr := io.ReadAll(r.Body)
	if readErr != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	if err := validateBatchEnvelope(body); err != nil {
		return nil, httpx.ErrInvalidRequest(err.Error())
	}

	var envelope batchEnvelope
	if err := jsoniter.Unmarshal(body, &envelope); err != nil {
		return nil, httpx.ErrUnableToParseReqData()
	}
	if max := config.Config().MaxBatchItems; max > 0 && len(envelope.Items) > max {
		return nil, httpx.ErrInvalidRequest("batch exceeds maximum size")
	}

	shared, verifyErr := sharedVersions(envelope)
	if verifyErr != nil {
		return nil, httpx.ErrInvalidRequest("invalid bundle token")
	}

	report, err := checkmanager.IngestBatch(r.Context(), envelope.Items, shared)
	if err != nil {
		return nil, err
	}

	statusCode := http.StatusOK
	if report.Status != types.BatchSuccess {
		statusCode = http.StatusMultiStatus
	}
	return &httpx.Response{StatusCode: statusCode, Response: report}, nil
}

func getResult(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "resultID")
	if err != nil {
		return nil, err
	}
	res, dbErr := db.DB(r.Context()).GetResult(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: res}, nil
}

func getResultDetail(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "resultID")
	if err != nil {
		return nil, err
	}
	detail, dbErr := db.DB(r.Context()).GetResultDetail(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]any{
		"resultId":   detail.ResultID,
		"detailType": detail.DetailType,
		"payload":    jsoniter.RawMessage(detail.Payload),
	}}, nil
}

func listAssignmentResults(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assignmentID")
	if err != nil {
		return nil, err
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n <= 0 {
			return nil, httpx.ErrInvalidRequest("invalid limit")
		}
		limit = n
	}
	results, dbErr := db.DB(r.Context()).ListResultsForAssignment(r.Context(), id, limit)
	if dbErr != nil {
		return nil, dbErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: results}, nil
}

func int64URLParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrInvalidRequest("invalid " + name)
	}
	return id, nil
}
