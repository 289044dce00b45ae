package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// OwnerHeader carries the owner id resolved by the authenticating proxy in
// front of this service.
const OwnerHeader = "X-Owner-ID"

type contextKey int

const ownerContextKey contextKey = iota

// requireOwner rejects requests without a valid owner header and puts the
// parsed id into the request context for the handlers.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(OwnerHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing "+OwnerHeader+" header")
			return
		}
		owner, err := uuid.Parse(raw)
		if err != nil || owner == uuid.Nil {
			writeError(w, http.StatusUnauthorized, "malformed "+OwnerHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), ownerContextKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(ctx context.Context) uuid.UUID {
	owner, _ := ctx.Value(ownerContextKey).(uuid.UUID)
	return owner
}
