package middleware

import (
	"context"
	"net/http"

	"github.com/nodewatch/nodewatch/internal/common/httpx"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
)

// LoadScopedDB acquires one store connection for the request and releases
// it on every exit path. Handlers reach it through db.DB(ctx).
func LoadScopedDB(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := db.ConnCtx(r.Context())
		store := db.DB(ctx)
		if store == nil {
			httpx.ErrApplicationError("unable to service request at this time").Send(w)
			return
		}
		// Background context so release survives a canceled request.
		defer store.Close(context.Background())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
