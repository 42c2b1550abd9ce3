package apis

import (
	"net/http"
	"strconv"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/audit"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/auth"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
)

// listActiveAssignments is the agent pull: every enabled assignment whose
// asset sits under the scope org unit. Scoped keys may only pull their own
// scope.
func listActiveAssignments(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	code := r.URL.Query().Get("scope")
	if code == "" {
		return nil, httpx.ErrInvalidRequest("missing scope")
	}
	unit, err := db.DB(ctx).GetOrgUnitByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p, ok := auth.PrincipalFrom(ctx); ok && p.OrgUnitID != 0 && p.OrgUnitID != unit.OrgUnitID {
		return nil, httpx.ErrForbidden("key is scoped to a different org unit")
	}

	assignments, err := checkmanager.ActiveAssignmentsForScope(ctx, unit.OrgUnitID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: assignments}, nil
}

type bulkCreateRequest struct {
	Template checkmanager.AssignmentTemplate `json:"template"`
	Target   checkmanager.TargetSpec         `json:"target"`
}

// bulkCreateAssignments creates assignments across a resolved target set.
// A zero created count with 200 means every target was already covered.
func bulkCreateAssignments(r *http.Request) (*httpx.Response, error) {
	var req bulkCreateRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	result, err := checkmanager.BulkCreate(r.Context(), req.Template, req.Target)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: result}, nil
}

type createAssignmentRequest struct {
	AssetID int64 `json:"assetId"`
	checkmanager.AssignmentTemplate
}

func createAssignment(r *http.Request) (*httpx.Response, error) {
	var req createAssignmentRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.AssetID <= 0 {
		return nil, httpx.ErrInvalidRequest("missing assetId")
	}
	a, err := checkmanager.CreateOne(r.Context(), req.AssetID, req.AssignmentTemplate)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/assignments/" + strconv.FormatInt(a.AssignmentID, 10),
		Response:   a,
	}, nil
}

func getAssignment(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assignmentID")
	if err != nil {
		return nil, err
	}
	a, dbErr := db.DB(r.Context()).GetAssignment(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: a}, nil
}

func updateAssignment(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assignmentID")
	if err != nil {
		return nil, err
	}
	var template checkmanager.AssignmentTemplate
	if err := httpx.GetRequestData(r, &template); err != nil {
		return nil, err
	}
	a, cmErr := checkmanager.Update(r.Context(), id, template)
	if cmErr != nil {
		return nil, cmErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: a}, nil
}

func deleteAssignment(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assignmentID")
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).DeleteAssignment(r.Context(), id); dbErr != nil {
		return nil, dbErr
	}
	audit.AssignmentDeleted(r.Context(), id)
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}
