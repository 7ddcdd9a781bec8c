package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
)

type AnalyticsHandler struct {
	svc analytics.Service
}

func NewAnalyticsHandler(svc analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// GET /api/v1/forms/:id/analytics
func (h *AnalyticsHandler) Report(c fiber.Ctx) error {
	report, err := h.svc.Report(c.Context(), c.Params("id"))
	if err != nil {
		return mapAnalyticsError(c, err)
	}

	return ok(c, report)
}

// GET /api/v1/forms/:id/analytics/fields/:fieldId
func (h *AnalyticsHandler) Field(c fiber.Ctx) error {
	report, err := h.svc.Field(c.Context(), c.Params("id"), c.Params("fieldId"))
	if err != nil {
		return mapAnalyticsError(c, err)
	}

	return ok(c, report)
}

// POST /api/v1/forms/:id/analytics/summary
// An empty body asks for a general summary.
func (h *AnalyticsHandler) Summary(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	summary, err := h.svc.Summarize(c.Context(), c.Params("id"), body.Question)
	if err != nil {
		return mapAnalyticsError(c, err)
	}

	return ok(c, summary)
}

func mapAnalyticsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, analytics.ErrFormNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, analytics.ErrFieldNotFound):
		return notFound(c, err.Error())
	default:
		return fail(c, err)
	}
}
