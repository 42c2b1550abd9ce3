package checkmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

// Status is the presentation state derived for one asset.
type Status struct {
	Class types.StatusClass `json:"class"`
	Text  string            `json:"text"`
}

// DeriveStatus classifies the latest reachability result against the
// staleness window. Elapsed time is measured from the executor-reported
// time, so executor/server clock skew is absorbed by the window instead of
// corrected. A false result is unavailable no matter how old it is.
func DeriveStatus(last *models.Result, window time.Duration, now time.Time) Status {
	if last == nil || last.ReportedAt.IsZero() {
		return Status{Class: types.StatusUnknown, Text: "no results recorded"}
	}
	if !last.Available {
		return Status{
			Class: types.StatusUnavailable,
			Text:  fmt.Sprintf("unavailable as of %s", last.ReportedAt.UTC().Format(time.RFC3339)),
		}
	}
	elapsed := now.Sub(last.ReportedAt)
	if elapsed > window {
		return Status{
			Class: types.StatusWarning,
			Text:  fmt.Sprintf("last success is stale (%s ago, window %s)", elapsed.Truncate(time.Second), window),
		}
	}
	return Status{
		Class: types.StatusAvailable,
		Text:  fmt.Sprintf("available as of %s", last.ReportedAt.UTC().Format(time.RFC3339)),
	}
}

// stalenessWindow resolves the per-asset override, falling back to the
// configured default.
func stalenessWindow(asset *models.Asset) time.Duration {
	if asset != nil && asset.StalenessSeconds.Valid && asset.StalenessSeconds.Int32 > 0 {
		return time.Duration(asset.StalenessSeconds.Int32) * time.Second
	}
	return config.Config().DefaultStaleness()
}

// AssetStatus is one row of the fleet status view.
type AssetStatus struct {
	AssetID    int64      `json:"assetId"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	ReportedAt *time.Time `json:"reportedAt,omitempty"`
}

// StatusForAsset derives the live status of a single asset. Only the latest
// reachability result contributes; other check methods carry diagnostic
// detail but do not drive the availability class.
func StatusForAsset(ctx context.Context, assetID int64) (*AssetStatus, apperrors.Error) {
	asset, err := db.DB(ctx).GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return statusOf(ctx, asset), nil
}

// StatusForAll derives the fleet-wide status view.
func StatusForAll(ctx context.Context) ([]*AssetStatus, apperrors.Error) {
	assets, err := db.DB(ctx).ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*AssetStatus, 0, len(assets))
	for _, asset := range assets {
		out = append(out, statusOf(ctx, asset))
	}
	return out, nil
}

func statusOf(ctx context.Context, asset *models.Asset) *AssetStatus {
	entry := &AssetStatus{AssetID: asset.AssetID, Name: asset.Name}

	last, err := db.DB(ctx).GetLatestResult(ctx, asset.AssetID, types.MethodReachability)
	if err != nil && !err.Is(dberror.ErrNotFound) {
		entry.Status = Status{Class: types.StatusUnknown, Text: "status lookup failed"}
		return entry
	}
	entry.Status = DeriveStatus(last, stalenessWindow(asset), time.Now().UTC())
	if last != nil {
		t := last.ReportedAt.UTC()
		entry.ReportedAt = &t
	}
	return entry
}
