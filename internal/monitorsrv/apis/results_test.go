package apis

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/checkmanager"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
)

func mintBundleToken(t *testing.T, configVersion string) string {
	t.Helper()
	claims := checkmanager.BundleClaims{
		OrgUnitCode:   "dc-east",
		RoutingCode:   "rc-9",
		ConfigVersion: configVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "nodewatch",
			Subject:  "dc-east",
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       configVersion,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Config().BundleSigningSecret))
	require.NoError(t, err)
	return signed
}

func TestSharedVersionsFromBundleToken(t *testing.T) {
	shared, err := sharedVersions(batchEnvelope{
		BundleToken:     mintBundleToken(t, "cfg-12345"),
		ExecutorVersion: "2.3.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "cfg-12345", shared.ConfigVersion)
	assert.Equal(t, "2.3.0", shared.ExecutorVersion)
}

func TestSharedVersionsExplicitWinsOverToken(t *testing.T) {
	shared, err := sharedVersions(batchEnvelope{
		ConfigVersion: "cfg-explicit",
		BundleToken:   mintBundleToken(t, "cfg-from-token"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cfg-explicit", shared.ConfigVersion)
}

func TestSharedVersionsRejectsTamperedToken(t *testing.T) {
	token := mintBundleToken(t, "cfg-12345")
	_, err := sharedVersions(batchEnvelope{BundleToken: token + "x"})
	assert.Error(t, err)
}

func TestSharedVersionsWithoutToken(t *testing.T) {
	shared, err := sharedVersions(batchEnvelope{ConfigVersion: "cfg-1", ExecutorVersion: "2.0"})
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", shared.ConfigVersion)
	assert.Equal(t, "2.0", shared.ExecutorVersion)
}
