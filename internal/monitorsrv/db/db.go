package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dbmanager"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/postgresql"
)

// The store facade is split into three interfaces so each can be wrapped
// separately (caching, instrumentation). InventoryManager covers the entity
// CRUD the pipeline composes over; PipelineManager covers assignments and
// results, the part with correctness content.

type InventoryManager interface {
	// OrgUnit
	CreateOrgUnit(ctx context.Context, ou *models.OrgUnit) apperrors.Error
	GetOrgUnit(ctx context.Context, id int64) (*models.OrgUnit, apperrors.Error)
	GetOrgUnitByCode(ctx context.Context, code string) (*models.OrgUnit, apperrors.Error)
	UpdateOrgUnit(ctx context.Context, ou *models.OrgUnit) apperrors.Error
	DeleteOrgUnit(ctx context.Context, id int64) apperrors.Error
	ListOrgUnitChildIDs(ctx context.Context, parentID int64) ([]int64, apperrors.Error)

	// AssetType
	CreateAssetType(ctx context.Context, at *models.AssetType) apperrors.Error
	GetAssetType(ctx context.Context, id int64) (*models.AssetType, apperrors.Error)
	UpdateAssetType(ctx context.Context, at *models.AssetType) apperrors.Error
	DeleteAssetType(ctx context.Context, id int64) apperrors.Error
	ListAssetTypeChildIDs(ctx context.Context, parentID int64) ([]int64, apperrors.Error)

	// Asset
	CreateAsset(ctx context.Context, a *models.Asset) apperrors.Error
	GetAsset(ctx context.Context, id int64) (*models.Asset, apperrors.Error)
	UpdateAsset(ctx context.Context, a *models.Asset) apperrors.Error
	DeleteAsset(ctx context.Context, id int64) apperrors.Error
	ListAssets(ctx context.Context) ([]*models.Asset, apperrors.Error)
	ListAssetIDsByCriteria(ctx context.Context, unitIDs, typeIDs []int64, namePattern string) ([]int64, apperrors.Error)

	// CheckMethod
	CreateCheckMethod(ctx context.Context, m *models.CheckMethod) apperrors.Error
	GetCheckMethod(ctx context.Context, id int64) (*models.CheckMethod, apperrors.Error)
	GetCheckMethodByName(ctx context.Context, name string) (*models.CheckMethod, apperrors.Error)
	ListCheckMethods(ctx context.Context) ([]*models.CheckMethod, apperrors.Error)
	DeleteCheckMethod(ctx context.Context, id int64) apperrors.Error

	// ApiKey
	CreateApiKey(ctx context.Context, k *models.ApiKey) apperrors.Error
	GetApiKey(ctx context.Context, keyID uuid.UUID) (*models.ApiKey, apperrors.Error)
	SetApiKeyActive(ctx context.Context, keyID uuid.UUID, active bool) apperrors.Error
	TouchApiKey(ctx context.Context, keyID uuid.UUID) apperrors.Error
	DeleteApiKey(ctx context.Context, keyID uuid.UUID) apperrors.Error

	// Event
	AppendEvent(ctx context.Context, ev *models.Event) apperrors.Error
}

type PipelineManager interface {
	// Assignment
	CreateAssignment(ctx context.Context, a *models.Assignment) apperrors.Error
	// CreateAssignmentIfAbsent inserts unless an assignment with the same
	// (asset, method, params_canon, criteria_canon) already exists. Returns
	// whether a row was inserted.
	CreateAssignmentIfAbsent(ctx context.Context, a *models.Assignment) (bool, apperrors.Error)
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, apperrors.Error)
	UpdateAssignment(ctx context.Context, a *models.Assignment) apperrors.Error
	DeleteAssignment(ctx context.Context, id int64) apperrors.Error
	ListAssignmentsForAsset(ctx context.Context, assetID int64) ([]*models.Assignment, apperrors.Error)
	ListActiveAssignmentsForUnits(ctx context.Context, unitIDs []int64) ([]*models.ActiveAssignment, apperrors.Error)

	// Results
	BeginResultWork(ctx context.Context) (ResultWork, apperrors.Error)
	GetResult(ctx context.Context, id int64) (*models.Result, apperrors.Error)
	GetResultDetail(ctx context.Context, resultID int64) (*models.ResultDetail, apperrors.Error)
	ListResultsForAssignment(ctx context.Context, assignmentID int64, limit int) ([]*models.Result, apperrors.Error)
	GetLatestResult(ctx context.Context, assetID int64, methodName string) (*models.Result, apperrors.Error)
	CountResultsForAssignment(ctx context.Context, assignmentID int64) (int, apperrors.Error)
}

// ResultWork is one open unit of work for recording results. A single
// recording commits immediately; batch ingestion keeps the work open for the
// whole batch and preserves input order. After a store-level failure the
// work is unusable and must be rolled back.
type ResultWork = postgresql.ResultWork

type ConnectionManager interface {
	// Close returns the connection to the pool.
	Close(ctx context.Context)
}

type DB_ interface {
	InventoryManager
	PipelineManager
	ConnectionManager
}

var pool dbmanager.Pool

// Init creates the connection pool. Must be called once after config load,
// before any ConnCtx.
func Init(ctx context.Context) error {
	pg := dbmanager.NewPool(ctx, "postgresql")
	if pg == nil {
		return apperrors.New("unable to create db pool")
	}
	pool = pg
	return nil
}

func Conn(ctx context.Context) dbmanager.Conn {
	if pool != nil {
		conn, err := pool.Conn(ctx)
		if err == nil {
			return conn
		}
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
	}
	return nil
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "NodewatchDb"

// ConnCtx acquires a store handle for the current request and stashes it in
// the context. The caller owns releasing it via DB(ctx).Close(ctx).
func ConnCtx(ctx context.Context) context.Context {
	conn := Conn(ctx)
	return context.WithValue(ctx, ctxDbKey, conn)
}

type monitorDb struct {
	InventoryManager
	PipelineManager
	ConnectionManager
}

func DB(ctx context.Context) DB_ {
	if conn, ok := ctx.Value(ctxDbKey).(dbmanager.Conn); ok {
		im, pm, cm := postgresql.NewMonitorDb(conn)
		return &monitorDb{
			InventoryManager:  im,
			PipelineManager:   pm,
			ConnectionManager: cm,
		}
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
