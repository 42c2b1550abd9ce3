package postgresql

import (
	"context"
	"database/sql"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
)

// ResultWork is an open transaction for recording one or more results.
// Within a batch the first store-level failure poisons the transaction:
// Record must not be called again after it returns anything other than
// ErrNotFound.
type ResultWork interface {
	Record(ctx context.Context, res *models.Result, detail *models.ResultDetail) apperrors.Error
	Commit(ctx context.Context) apperrors.Error
	Rollback(ctx context.Context)
}

type resultWork struct {
	tx   *sql.Tx
	done bool
}

func (pm *pipelineManager) BeginResultWork(ctx context.Context) (ResultWork, apperrors.Error) {
	tx, err := pm.conn().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to start transaction")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &resultWork{tx: tx}, nil
}

// Record writes one result atomically: verify the assignment, insert the
// result, attach the optional detail, advance the assignment's
// back-pointer. All four ride the shared transaction.
func (w *resultWork) Record(ctx context.Context, res *models.Result, detail *models.ResultDetail) apperrors.Error {
	// Step 1: the assignment must exist. A plain no-row SELECT does not
	// poison the transaction, so a stale assignment id in the middle of a
	// batch leaves the rest of the batch processable.
	var assetID, methodID int64
	err := w.tx.QueryRowContext(ctx,
		`SELECT asset_id, method_id FROM assignments WHERE assignment_id = $1;`,
		res.AssignmentID).Scan(&assetID, &methodID)
	if err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("assignment not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", res.AssignmentID).Msg("failed to verify assignment")
		return dberror.ErrDatabase.Err(err)
	}
	res.AssetID = assetID
	res.MethodID = methodID

	// Step 2: insert the result row.
	query := `
		INSERT INTO results (asset_id, assignment_id, method_id, available, reported_at,
			executor_org_code, executor_host, resolution_method, config_version, executor_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING result_id, received_at;
	`
	err = w.tx.QueryRowContext(ctx, query,
		res.AssetID, res.AssignmentID, res.MethodID, res.Available, res.ReportedAt,
		res.ExecutorOrgCode, res.ExecutorHost, res.ResolutionMethod, res.ConfigVersion, res.ExecutorVersion).
		Scan(&res.ResultID, &res.ReceivedAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", res.AssignmentID).Msg("failed to insert result")
		return dberror.ErrDatabase.Err(err)
	}

	// Step 3: at most one detail per result in this path.
	if detail != nil {
		detail.ResultID = res.ResultID
		payload := detail.Payload
		if threshold := config.Config().DetailCompressThreshold; threshold > 0 && len(payload) >= threshold {
			payload = snappy.Encode(nil, payload)
			detail.Compressed = true
		}
		err = w.tx.QueryRowContext(ctx,
			`INSERT INTO result_details (result_id, detail_type, payload, compressed)
			 VALUES ($1, $2, $3, $4) RETURNING detail_id;`,
			detail.ResultID, detail.DetailType, payload, detail.Compressed).Scan(&detail.DetailID)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("result_id", res.ResultID).Msg("failed to insert result detail")
			return dberror.ErrDatabase.Err(err)
		}
	}

	// Step 4: advance the back-pointer. Row-level write serialization makes
	// this last-committed-wins under contention.
	_, err = w.tx.ExecContext(ctx,
		`UPDATE assignments SET last_result_id = $2, last_checked_at = $3 WHERE assignment_id = $1;`,
		res.AssignmentID, res.ResultID, res.ReportedAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", res.AssignmentID).Msg("failed to advance last-result pointer")
		return dberror.ErrDatabase.Err(err)
	}

	return nil
}

func (w *resultWork) Commit(ctx context.Context) apperrors.Error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tx.Commit(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to commit result work")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (w *resultWork) Rollback(ctx context.Context) {
	if w.done {
		return
	}
	w.done = true
	if err := w.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Ctx(ctx).Error().Err(err).Msg("failed to roll back result work")
	}
}

const resultColumns = `result_id, asset_id, assignment_id, method_id, available, received_at,
	reported_at, executor_org_code, executor_host, resolution_method, config_version, executor_version`

func scanResult(row interface{ Scan(...any) error }) (*models.Result, error) {
	var r models.Result
	err := row.Scan(&r.ResultID, &r.AssetID, &r.AssignmentID, &r.MethodID, &r.Available, &r.ReceivedAt,
		&r.ReportedAt, &r.ExecutorOrgCode, &r.ExecutorHost, &r.ResolutionMethod, &r.ConfigVersion, &r.ExecutorVersion)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (pm *pipelineManager) GetResult(ctx context.Context, id int64) (*models.Result, apperrors.Error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE result_id = $1;`
	r, err := scanResult(pm.conn().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("result not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("result_id", id).Msg("failed to get result")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return r, nil
}

func (pm *pipelineManager) GetResultDetail(ctx context.Context, resultID int64) (*models.ResultDetail, apperrors.Error) {
	var d models.ResultDetail
	err := pm.conn().QueryRowContext(ctx,
		`SELECT detail_id, result_id, detail_type, payload, compressed
		 FROM result_details WHERE result_id = $1;`, resultID).
		Scan(&d.DetailID, &d.ResultID, &d.DetailType, &d.Payload, &d.Compressed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("result detail not found")
		}
		log.Ctx(ctx).Error().Err(err).Int64("result_id", resultID).Msg("failed to get result detail")
		return nil, dberror.ErrDatabase.Err(err)
	}
	if d.Compressed {
		payload, err := snappy.Decode(nil, d.Payload)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("result_id", resultID).Msg("failed to decompress result detail")
			return nil, dberror.ErrDatabase.Err(err)
		}
		d.Payload = payload
		d.Compressed = false
	}
	return &d, nil
}

func (pm *pipelineManager) ListResultsForAssignment(ctx context.Context, assignmentID int64, limit int) ([]*models.Result, apperrors.Error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + resultColumns + ` FROM results WHERE assignment_id = $1 ORDER BY result_id DESC LIMIT $2;`
	rows, err := pm.conn().QueryContext(ctx, query, assignmentID, limit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", assignmentID).Msg("failed to list results")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var out []*models.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return out, nil
}

// GetLatestResult returns the most recent result for the asset and method
// name, by reported time. The status deriver only ever asks for the
// reachability method.
func (pm *pipelineManager) GetLatestResult(ctx context.Context, assetID int64, methodName string) (*models.Result, apperrors.Error) {
	query := `
		SELECT ` + resultColumns + `
		FROM results r
		WHERE r.asset_id = $1
		  AND r.method_id = (SELECT method_id FROM check_methods WHERE name = $2)
		ORDER BY r.reported_at DESC, r.result_id DESC
		LIMIT 1;
	`
	r, err := scanResult(pm.conn().QueryRowContext(ctx, query, assetID, methodName))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("no result recorded")
		}
		log.Ctx(ctx).Error().Err(err).Int64("asset_id", assetID).Msg("failed to get latest result")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return r, nil
}

func (pm *pipelineManager) CountResultsForAssignment(ctx context.Context, assignmentID int64) (int, apperrors.Error) {
	var n int
	err := pm.conn().QueryRowContext(ctx,
		`SELECT count(*) FROM results WHERE assignment_id = $1;`, assignmentID).Scan(&n)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("assignment_id", assignmentID).Msg("failed to count results")
		return 0, dberror.ErrDatabase.Err(err)
	}
	return n, nil
}
