package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/pkg/types"
)

const apiKeyHeader = "X-API-Key"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	KeyID     string
	Role      types.Role
	OrgUnitID int64 // 0 when the key is unscoped
}

type ctxPrincipalKeyType string

const ctxPrincipalKey ctxPrincipalKeyType = "NodewatchPrincipal"

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxPrincipalKey).(*Principal)
	return p, ok
}

// Authenticate resolves the X-API-Key header to a principal. It runs inside
// the scoped-store middleware, so lookups ride the request's connection. The
// last-used timestamp update is fire-and-forget.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		keyID, secret, err := ParsePresentedKey(r.Header.Get(apiKeyHeader))
		if err != nil {
			httpx.ErrUnAuthorized("invalid api key").Send(w)
			return
		}

		key, dbErr := db.DB(ctx).GetApiKey(ctx, keyID)
		if dbErr != nil || !key.Active || !VerifySecret(secret, key.KeyHash) {
			httpx.ErrUnAuthorized("invalid api key").Send(w)
			return
		}

		p := &Principal{KeyID: key.KeyID.String(), Role: key.Role}
		if key.OrgUnitID.Valid {
			p.OrgUnitID = key.OrgUnitID.Int64
		}

		touchLastUsed(ctx, key.KeyID)

		ctx = context.WithValue(ctx, ctxPrincipalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// touchLastUsed updates the key's last-used timestamp on its own connection
// so the write never delays or fails the authenticated request.
func touchLastUsed(parent context.Context, keyID uuid.UUID) {
	logger := log.Ctx(parent).With().Str("key_id", keyID.String()).Logger()
	go func() {
		ctx := db.ConnCtx(logger.WithContext(context.Background()))
		store := db.DB(ctx)
		if store == nil {
			return
		}
		defer store.Close(ctx)

		if err := store.TouchApiKey(ctx, keyID); err != nil {
			logger.Warn().Err(err).Msg("failed to touch api key")
		}
	}()
}

// RequireRole rejects requests whose principal does not satisfy any of the
// given roles. Admin satisfies everything.
func RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				httpx.ErrUnAuthorized("no credential presented").Send(w)
				return
			}
			for _, role := range roles {
				if p.Role.Satisfies(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.ErrForbidden("insufficient role").Send(w)
		})
	}
}
