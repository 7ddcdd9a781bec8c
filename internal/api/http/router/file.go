package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
)

// Respondents are anonymous, so both routes are public. Uploads share the
// submission rate limit.
func (r *Router) registerFileRoutes(api fiber.Router, h *handler.FileHandler, submitLimit fiber.Handler) {
	files := api.Group("/files")
	files.Post("/upload", submitLimit, h.Upload)
	files.Get("/*", h.Download)
}
