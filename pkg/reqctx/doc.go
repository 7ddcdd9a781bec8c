// Package reqctx holds request-scoped values: request metadata set by the
// HTTP middleware and the claims of the authenticated user.
//
// Claims are set only for authenticated requests:
//
//	ctx = reqctx.WithClaims(ctx, claims)
//	if userID, ok := reqctx.UserIDFromContext(ctx); ok { ... }
package reqctx
