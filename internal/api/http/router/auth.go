package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/signup", h.SignUp)
	group.Post("/signin", h.SignIn)
	group.Post("/refresh", h.Refresh)
	group.Post("/signout", authRequired, h.SignOut)
	group.Get("/me", authRequired, h.Me)
}
