package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
)

func (r *Router) registerAnalyticsRoutes(
	api fiber.Router,
	h *handler.AnalyticsHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	group := api.Group("/forms/:id/analytics", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionRead))
	group.Get("", h.Report)
	group.Get("/fields/:fieldId", h.Field)
	group.Post("/summary", h.Summary)
}
