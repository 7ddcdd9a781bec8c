package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/api/http/handler"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
)

func (r *Router) registerResponseRoutes(
	api fiber.Router,
	h *handler.ResponseHandler,
	authRequired fiber.Handler,
	submitLimit fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	responses := api.Group("/forms/:id/responses")

	// Public
	responses.Post("", submitLimit, h.Submit)

	// Owner and viewers. Static paths go before /:responseId.
	responses.Get("", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionList), h.List)
	responses.Get("/count", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionList), h.Count)
	responses.Get("/export", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionExport), h.Export)
	responses.Get("/:responseId", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionRead), h.Get)
	responses.Delete("/:responseId", authRequired, requirePerm(authorize.ResourceResponse, authorize.ActionDelete), h.Delete)
}
