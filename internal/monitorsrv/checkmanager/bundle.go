package checkmanager

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/apperrors"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/audit"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
)

// BundleCheck is one flattened assignment inside an offline bundle.
type BundleCheck struct {
	AssignmentID    int64  `json:"assignmentId"`
	AssetID         int64  `json:"assetId"`
	AssetName       string `json:"assetName"`
	AssetAddress    string `json:"assetAddress,omitempty"`
	Method          string `json:"method"`
	Parameters      any    `json:"parameters,omitempty"`
	SuccessCriteria any    `json:"successCriteria,omitempty"`
	IntervalSeconds int    `json:"intervalSeconds"`
}

// Bundle is a signed snapshot of an org unit's active assignments for
// disconnected executors. ConfigVersion is a fresh token per generation so
// uploaded results can be traced back to the bundle that drove them.
type Bundle struct {
	OrgUnitCode   string        `json:"orgUnitCode"`
	RoutingCode   string        `json:"routingCode"`
	ConfigVersion string        `json:"configVersion"`
	GeneratedAt   time.Time     `json:"generatedAt"`
	Checks        []BundleCheck `json:"checks"`
	Token         string        `json:"token"`
}

type BundleClaims struct {
	OrgUnitCode   string        `json:"orgUnitCode"`
	RoutingCode   string        `json:"routingCode"`
	ConfigVersion string        `json:"configVersion"`
	Checks        []BundleCheck `json:"checks"`
	jwt.RegisteredClaims
}

// GenerateBundle snapshots the active assignments under the org unit named
// by its external code. A missing unit is not-found; a unit without a
// routing code is the distinct not-configured condition, since a loader
// cannot return results it cannot route.
func GenerateBundle(ctx context.Context, orgUnitCode string) (*Bundle, apperrors.Error) {
	unit, err := db.DB(ctx).GetOrgUnitByCode(ctx, orgUnitCode)
	if err != nil {
		return nil, err
	}
	if !unit.RoutingCode.Valid || unit.RoutingCode.String == "" {
		return nil, ErrNotConfigured.Msg("org unit has no routing code")
	}

	assignments, err := ActiveAssignmentsForScope(ctx, unit.OrgUnitID)
	if err != nil {
		return nil, err
	}

	version, idErr := gonanoid.New()
	if idErr != nil {
		return nil, ErrCheckManager.Err(idErr)
	}

	now := time.Now().UTC()
	bundle := &Bundle{
		OrgUnitCode:   unit.Code,
		RoutingCode:   unit.RoutingCode.String,
		ConfigVersion: version,
		GeneratedAt:   now,
		Checks:        make([]BundleCheck, 0, len(assignments)),
	}
	for _, a := range assignments {
		bundle.Checks = append(bundle.Checks, toBundleCheck(a))
	}

	token, signErr := signBundle(bundle, now)
	if signErr != nil {
		log.Ctx(ctx).Error().Err(signErr).Str("org_unit", orgUnitCode).Msg("failed to sign bundle")
		return nil, ErrCheckManager.Err(signErr)
	}
	bundle.Token = token

	metrics.BundlesGenerated.Inc()
	audit.BundleGenerated(ctx, unit.Code, version, len(bundle.Checks))
	log.Ctx(ctx).Info().
		Str("org_unit", orgUnitCode).
		Str("config_version", version).
		Int("checks", len(bundle.Checks)).
		Msg("bundle generated")
	return bundle, nil
}

func toBundleCheck(a *models.ActiveAssignment) BundleCheck {
	c := BundleCheck{
		AssignmentID:    a.AssignmentID,
		AssetID:         a.AssetID,
		AssetName:       a.AssetName,
		AssetAddress:    a.AssetAddress,
		Method:          a.MethodName,
		IntervalSeconds: a.IntervalSeconds,
	}
	_ = a.Parameters.AssignTo(&c.Parameters)
	_ = a.SuccessCriteria.AssignTo(&c.SuccessCriteria)
	return c
}

func signBundle(b *Bundle, now time.Time) (string, error) {
	claims := BundleClaims{
		OrgUnitCode:   b.OrgUnitCode,
		RoutingCode:   b.RoutingCode,
		ConfigVersion: b.ConfigVersion,
		Checks:        b.Checks,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "nodewatch",
			Subject:  b.OrgUnitCode,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       b.ConfigVersion,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Config().BundleSigningSecret))
}

// VerifyBundleToken checks a bundle token's signature and returns its
// claims. Batch ingestion calls it when an upload presents the token of the
// bundle it executed, so the claimed config version can be trusted.
func VerifyBundleToken(tokenStr string) (*BundleClaims, error) {
	var claims BundleClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Config().BundleSigningSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
