package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
)

// Form and builder routes. Ownership is checked by the form service itself,
// so only authentication happens here.
func (r *Router) registerFormRoutes(api fiber.Router, h *handler.FormHandler, authRequired fiber.Handler) {
	forms := api.Group("/forms")
	forms.Get("", authRequired, h.List)
	forms.Post("", authRequired, h.Create)
	forms.Post("/generate", authRequired, h.Generate)

	forms.Get("/:id", h.Get)
	forms.Patch("/:id", authRequired, h.Update)
	forms.Delete("/:id", authRequired, h.Delete)
	forms.Post("/:id/share", authRequired, h.Share)

	fields := forms.Group("/:id/fields", authRequired)
	fields.Post("", h.AddField)
	fields.Post("/reorder", h.ReorderFields)
	fields.Patch("/:fieldId", h.UpdateField)
	fields.Delete("/:fieldId", h.RemoveField)
	fields.Post("/:fieldId/options", h.AddOption)
	fields.Patch("/:fieldId/options/:index", h.UpdateOption)
	fields.Delete("/:fieldId/options/:index", h.RemoveOption)
}
