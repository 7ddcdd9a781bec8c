package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is the verified identity the auth middleware attaches to a
// request. Services only need to know who is acting and in which session.
type AuthClaims interface {
	GetUserID() uuid.UUID
	GetSessionID() *uuid.UUID
}

func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns nil for anonymous requests such as public
// form views and submissions.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.GetUserID(), true
	}
	return uuid.Nil, false
}
