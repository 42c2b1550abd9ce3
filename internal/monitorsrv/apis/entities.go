package apis

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/auth"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// Entity CRUD is thin persistence plumbing; the pipeline endpoints need the
// entities to exist but nothing here carries pipeline logic.

var entityHandlers = []httpx.ResponseHandlerParam{
	{Method: http.MethodPost, Path: "/orgunits", Handler: createOrgUnit},
	{Method: http.MethodGet, Path: "/orgunits/{orgUnitID}", Handler: getOrgUnit},
	{Method: http.MethodPut, Path: "/orgunits/{orgUnitID}", Handler: updateOrgUnit},
	{Method: http.MethodDelete, Path: "/orgunits/{orgUnitID}", Handler: deleteOrgUnit},

	{Method: http.MethodPost, Path: "/assettypes", Handler: createAssetType},
	{Method: http.MethodGet, Path: "/assettypes/{assetTypeID}", Handler: getAssetType},
	{Method: http.MethodPut, Path: "/assettypes/{assetTypeID}", Handler: updateAssetType},
	{Method: http.MethodDelete, Path: "/assettypes/{assetTypeID}", Handler: deleteAssetType},

	{Method: http.MethodPost, Path: "/assets", Handler: createAsset},
	{Method: http.MethodGet, Path: "/assets", Handler: listAssets},
	{Method: http.MethodGet, Path: "/assets/{assetID}", Handler: getAsset},
	{Method: http.MethodPut, Path: "/assets/{assetID}", Handler: updateAsset},
	{Method: http.MethodDelete, Path: "/assets/{assetID}", Handler: deleteAsset},
	{Method: http.MethodGet, Path: "/assets/{assetID}/assignments", Handler: listAssetAssignments},

	{Method: http.MethodPost, Path: "/checkmethods", Handler: createCheckMethod},
	{Method: http.MethodGet, Path: "/checkmethods", Handler: listCheckMethods},
	{Method: http.MethodDelete, Path: "/checkmethods/{methodID}", Handler: deleteCheckMethod},
}

var apiKeyHandlers = []httpx.ResponseHandlerParam{
	{Method: http.MethodPost, Path: "/apikeys", Handler: createApiKey},
	{Method: http.MethodPut, Path: "/apikeys/{keyID}/active", Handler: setApiKeyActive},
	{Method: http.MethodDelete, Path: "/apikeys/{keyID}", Handler: deleteApiKey},
}

func mountEntityHandlers(r chi.Router) {
	mountHandlers(r, entityHandlers)
}

// OrgUnit

type orgUnitRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	ParentID    int64  `json:"parentId,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	RoutingCode string `json:"routingCode,omitempty"`
}

func (req *orgUnitRequest) toModel() (*models.OrgUnit, error) {
	if req.Code == "" || req.Name == "" {
		return nil, httpx.ErrInvalidRequest("code and name are required")
	}
	ou := &models.OrgUnit{Code: req.Code, Name: req.Name, Priority: req.Priority}
	if req.ParentID > 0 {
		ou.ParentID = sql.NullInt64{Int64: req.ParentID, Valid: true}
	}
	if req.RoutingCode != "" {
		ou.RoutingCode = sql.NullString{String: req.RoutingCode, Valid: true}
	}
	return ou, nil
}

func createOrgUnit(r *http.Request) (*httpx.Response, error) {
	var req orgUnitRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	ou, err := req.toModel()
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).CreateOrgUnit(r.Context(), ou); dbErr != nil {
		return nil, dbErr
	}
	return created("/orgunits/"+strconv.FormatInt(ou.OrgUnitID, 10), ou), nil
}

func getOrgUnit(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "orgUnitID")
	if err != nil {
		return nil, err
	}
	ou, dbErr := db.DB(r.Context()).GetOrgUnit(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(ou), nil
}

func updateOrgUnit(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "orgUnitID")
	if err != nil {
		return nil, err
	}
	var req orgUnitRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	ou, reqErr := req.toModel()
	if reqErr != nil {
		return nil, reqErr
	}
	ou.OrgUnitID = id
	if dbErr := db.DB(r.Context()).UpdateOrgUnit(r.Context(), ou); dbErr != nil {
		return nil, dbErr
	}
	return ok(ou), nil
}

func deleteOrgUnit(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "orgUnitID")
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).DeleteOrgUnit(r.Context(), id); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

// AssetType

type assetTypeRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parentId,omitempty"`
}

func createAssetType(r *http.Request) (*httpx.Response, error) {
	var req assetTypeRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, httpx.ErrInvalidRequest("name is required")
	}
	at := &models.AssetType{Name: req.Name}
	if req.ParentID > 0 {
		at.ParentID = sql.NullInt64{Int64: req.ParentID, Valid: true}
	}
	if dbErr := db.DB(r.Context()).CreateAssetType(r.Context(), at); dbErr != nil {
		return nil, dbErr
	}
	return created("/assettypes/"+strconv.FormatInt(at.AssetTypeID, 10), at), nil
}

func getAssetType(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParamAllowZero(r, "assetTypeID")
	if err != nil {
		return nil, err
	}
	at, dbErr := db.DB(r.Context()).GetAssetType(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(at), nil
}

func updateAssetType(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetTypeID")
	if err != nil {
		return nil, err
	}
	var req assetTypeRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, httpx.ErrInvalidRequest("name is required")
	}
	at := &models.AssetType{AssetTypeID: id, Name: req.Name}
	if req.ParentID > 0 {
		at.ParentID = sql.NullInt64{Int64: req.ParentID, Valid: true}
	}
	if dbErr := db.DB(r.Context()).UpdateAssetType(r.Context(), at); dbErr != nil {
		return nil, dbErr
	}
	return ok(at), nil
}

func deleteAssetType(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetTypeID")
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).DeleteAssetType(r.Context(), id); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

// Asset

type assetRequest struct {
	Name             string `json:"name"`
	OrgUnitID        int64  `json:"orgUnitId"`
	AssetTypeID      int64  `json:"assetTypeId,omitempty"`
	Address          string `json:"address,omitempty"`
	Description      string `json:"description,omitempty"`
	StalenessSeconds int32  `json:"stalenessSeconds,omitempty"`
}

func (req *assetRequest) toModel() (*models.Asset, error) {
	if req.Name == "" || req.OrgUnitID <= 0 {
		return nil, httpx.ErrInvalidRequest("name and orgUnitId are required")
	}
	a := &models.Asset{Name: req.Name, OrgUnitID: req.OrgUnitID}
	if req.AssetTypeID > 0 {
		a.AssetTypeID = sql.NullInt64{Int64: req.AssetTypeID, Valid: true}
	}
	if req.Address != "" {
		a.Address = sql.NullString{String: req.Address, Valid: true}
	}
	if req.Description != "" {
		a.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.StalenessSeconds > 0 {
		a.StalenessSeconds = sql.NullInt32{Int32: req.StalenessSeconds, Valid: true}
	}
	return a, nil
}

func createAsset(r *http.Request) (*httpx.Response, error) {
	var req assetRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	a, reqErr := req.toModel()
	if reqErr != nil {
		return nil, reqErr
	}
	if dbErr := db.DB(r.Context()).CreateAsset(r.Context(), a); dbErr != nil {
		return nil, dbErr
	}
	return created("/assets/"+strconv.FormatInt(a.AssetID, 10), a), nil
}

func listAssets(r *http.Request) (*httpx.Response, error) {
	assets, dbErr := db.DB(r.Context()).ListAssets(r.Context())
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(assets), nil
}

func getAsset(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetID")
	if err != nil {
		return nil, err
	}
	a, dbErr := db.DB(r.Context()).GetAsset(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(a), nil
}

func updateAsset(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetID")
	if err != nil {
		return nil, err
	}
	var req assetRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	a, reqErr := req.toModel()
	if reqErr != nil {
		return nil, reqErr
	}
	a.AssetID = id
	if dbErr := db.DB(r.Context()).UpdateAsset(r.Context(), a); dbErr != nil {
		return nil, dbErr
	}
	return ok(a), nil
}

func deleteAsset(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetID")
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).DeleteAsset(r.Context(), id); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

func listAssetAssignments(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "assetID")
	if err != nil {
		return nil, err
	}
	assignments, dbErr := db.DB(r.Context()).ListAssignmentsForAsset(r.Context(), id)
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(assignments), nil
}

// CheckMethod

type checkMethodRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func createCheckMethod(r *http.Request) (*httpx.Response, error) {
	var req checkMethodRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, httpx.ErrInvalidRequest("name is required")
	}
	m := &models.CheckMethod{Name: req.Name}
	if req.Description != "" {
		m.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if dbErr := db.DB(r.Context()).CreateCheckMethod(r.Context(), m); dbErr != nil {
		return nil, dbErr
	}
	return created("/checkmethods/"+strconv.FormatInt(m.MethodID, 10), m), nil
}

func listCheckMethods(r *http.Request) (*httpx.Response, error) {
	methods, dbErr := db.DB(r.Context()).ListCheckMethods(r.Context())
	if dbErr != nil {
		return nil, dbErr
	}
	return ok(methods), nil
}

func deleteCheckMethod(r *http.Request) (*httpx.Response, error) {
	id, err := int64URLParam(r, "methodID")
	if err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).DeleteCheckMethod(r.Context(), id); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

// ApiKey

type apiKeyRequest struct {
	Description string `json:"description,omitempty"`
	Role        string `json:"role"`
	OrgUnitID   int64  `json:"orgUnitId,omitempty"`
}

// createApiKey mints a key and returns the full secret once. Only the hash
// is stored.
func createApiKey(r *http.Request) (*httpx.Response, error) {
	var req apiKeyRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	role := types.ParseRole(req.Role)
	if role == types.RoleInvalid {
		return nil, httpx.ErrInvalidRequest("invalid role")
	}

	secret, keyHash, genErr := auth.NewSecret()
	if genErr != nil {
		return nil, httpx.ErrApplicationError("unable to generate key")
	}
	key := &models.ApiKey{
		KeyID:   uuid.New(),
		KeyHash: keyHash,
		Role:    role,
		Active:  true,
	}
	if req.Description != "" {
		key.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.OrgUnitID > 0 {
		key.OrgUnitID = sql.NullInt64{Int64: req.OrgUnitID, Valid: true}
	}
	if dbErr := db.DB(r.Context()).CreateApiKey(r.Context(), key); dbErr != nil {
		return nil, dbErr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response: map[string]any{
			"keyId":  key.KeyID,
			"apiKey": key.KeyID.String() + "." + secret,
			"role":   key.Role,
		},
	}, nil
}

type apiKeyActiveRequest struct {
	Active bool `json:"active"`
}

func setApiKeyActive(r *http.Request) (*httpx.Response, error) {
	keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		return nil, httpx.ErrInvalidRequest("invalid key id")
	}
	var req apiKeyActiveRequest
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if dbErr := db.DB(r.Context()).SetApiKeyActive(r.Context(), keyID, req.Active); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

func deleteApiKey(r *http.Request) (*httpx.Response, error) {
	keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		return nil, httpx.ErrInvalidRequest("invalid key id")
	}
	if dbErr := db.DB(r.Context()).DeleteApiKey(r.Context(), keyID); dbErr != nil {
		return nil, dbErr
	}
	return noContent(), nil
}

func ok(rsp any) *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}
}

func created(location string, rsp any) *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusCreated, Location: location, Response: rsp}
}

func noContent() *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusNoContent}
}

// int64URLParamAllowZero permits id 0, which is the root of the asset type
// tree.
func int64URLParamAllowZero(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 0 {
		return 0, httpx.ErrInvalidRequest("invalid " + name)
	}
	return id, nil
}
