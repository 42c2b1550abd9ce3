package checkmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleTokenRoundTrip(t *testing.T) {
	b := &Bundle{
		OrgUnitCode:   "dc-west",
		RoutingCode:   "RC-17",
		ConfigVersion: "v_abc123",
		Checks: []BundleCheck{
			{AssignmentID: 4, AssetID: 9, AssetName: "edge-9", Method: "reachability", IntervalSeconds: 60},
		},
	}

	token, err := signBundle(b, time.Now().UTC())
	require.NoError(t, err)

	claims, err := VerifyBundleToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dc-west", claims.OrgUnitCode)
	assert.Equal(t, "RC-17", claims.RoutingCode)
	assert.Equal(t, "v_abc123", claims.ConfigVersion)
	require.Len(t, claims.Checks, 1)
	assert.Equal(t, int64(9), claims.Checks[0].AssetID)
	assert.Equal(t, "v_abc123", claims.RegisteredClaims.ID)
}

func TestBundleTokenTamperDetected(t *testing.T) {
	b := &Bundle{OrgUnitCode: "dc-west", RoutingCode: "RC-17", ConfigVersion: "v1"}
	token, err := signBundle(b, time.Now().UTC())
	require.NoError(t, err)

	_, err = VerifyBundleToken(token + "x")
	assert.Error(t, err)
}
