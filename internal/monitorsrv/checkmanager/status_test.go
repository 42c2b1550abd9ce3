package checkmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/pkg/types"
)

func TestDeriveStatusBoundaries(t *testing.T) {
	window := 5 * time.Minute
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	result := func(available bool, age time.Duration) *models.Result {
		return &models.Result{Available: available, ReportedAt: now.Add(-age)}
	}

	// Inside the window.
	s := DeriveStatus(result(true, 4*time.Minute+59*time.Second), window, now)
	assert.Equal(t, types.StatusAvailable, s.Class)

	// Just past the window: stale success.
	s = DeriveStatus(result(true, 5*time.Minute+1*time.Second), window, now)
	assert.Equal(t, types.StatusWarning, s.Class)

	// Exactly at the window edge still counts as available.
	s = DeriveStatus(result(true, 5*time.Minute), window, now)
	assert.Equal(t, types.StatusAvailable, s.Class)

	// A false result is unavailable at any age.
	s = DeriveStatus(result(false, time.Second), window, now)
	assert.Equal(t, types.StatusUnavailable, s.Class)
	s = DeriveStatus(result(false, 48*time.Hour), window, now)
	assert.Equal(t, types.StatusUnavailable, s.Class)

	// No result ever.
	s = DeriveStatus(nil, window, now)
	assert.Equal(t, types.StatusUnknown, s.Class)

	// A zero reported time is indistinguishable from no result.
	s = DeriveStatus(&models.Result{Available: true}, window, now)
	assert.Equal(t, types.StatusUnknown, s.Class)
}

func TestStalenessWindowOverride(t *testing.T) {
	asset := &models.Asset{}
	assert.Equal(t, 5*time.Minute, stalenessWindow(asset))

	asset.StalenessSeconds.Int32 = 30
	asset.StalenessSeconds.Valid = true
	assert.Equal(t, 30*time.Second, stalenessWindow(asset))

	assert.Equal(t, 5*time.Minute, stalenessWindow(nil))
}
