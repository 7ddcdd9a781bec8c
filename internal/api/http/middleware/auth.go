package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/formora_backend/pkg/constants"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
	"github.com/Alijeyrad/formora_backend/pkg/reqctx"
)

// AuthRequired validates a Bearer PASETO access token and checks the session in Redis.
// On success the claims are stored in c.Locals(pasetotoken.CtxKeyClaims) and
// on the request context for reqctx readers.
func AuthRequired(mgr *pasetotoken.Manager, rdb redis.Cmdable) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := pasetotoken.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(token)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == nil {
			return fiber.ErrUnauthorized
		}

		key := constants.SessionKeyPrefix + claims.SessionID.String()
		owner, err := rdb.Get(c.Context(), key).Result()
		if err != nil || owner != claims.UserID.String() {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
