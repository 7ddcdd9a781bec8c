package pasetotoken

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/config"
)

const CtxKeyClaims = "auth.claims"

// ClaimsFromFiber returns the claims stored by the auth middleware.
func ClaimsFromFiber(c fiber.Ctx) (*Claims, bool) {
	cl, ok := c.Locals(CtxKeyClaims).(*Claims)
	return cl, ok && cl != nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// NewPasetoManager creates a new PASETO manager from config. In development
// a missing local key is replaced by a random one, so tokens do not survive
// a restart.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto
	mode := Mode(p.Mode)

	var (
		keys Keys
		err  error
	)
	if mode == ModeLocal && p.LocalKeyHex == "" && strings.EqualFold(cfg.Server.Environment, "development") {
		slog.Warn("paseto local key not set, using an ephemeral key")
		keys = GenerateKeys(ModeLocal)
	} else if keys, err = KeysFromConfig(p); err != nil {
		return nil, err
	}

	audience := p.Audience
	if audience == "" {
		audience = p.Issuer
	}
	return New(Config{
		Mode:       mode,
		Issuer:     p.Issuer,
		Audience:   audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}
