package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/pkg/authorize"
)

// RequireFormPermission checks that the authenticated user may perform action
// on resource inside the casbin domain of the form named by the :id route
// parameter. It must run after AuthRequired.
func RequireFormPermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		subject, err := authorize.SubjectFromContext(c.Context())
		if err != nil {
			return fiber.ErrUnauthorized
		}

		domain := authorize.FormDomain(c.Params("id"))
		if !authorize.IsValidDomain(domain) {
			return fiber.NewError(fiber.StatusNotFound, "form not found")
		}

		if err := auth.MustEnforce(c.Context(), subject, domain, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
