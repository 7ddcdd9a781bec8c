package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/service/response"
)

type ResponseHandler struct {
	svc response.Service
}

func NewResponseHandler(svc response.Service) *ResponseHandler {
	return &ResponseHandler{svc: svc}
}

// POST /api/v1/forms/:id/responses  (public)
func (h *ResponseHandler) Submit(c fiber.Ctx) error {
	var body struct {
		Values map[string]json.RawMessage `json:"values"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	r, err := h.svc.Submit(c.Context(), c.Params("id"), body.Values, c.IP())
	if err != nil {
		return mapResponseError(c, err)
	}

	return created(c, r)
}

// GET /api/v1/forms/:id/responses?page=&per_page=
func (h *ResponseHandler) List(c fiber.Ctx) error {
	req := response.ListRequest{
		Page:    fiber.Query(c, "page", 1),
		PerPage: fiber.Query(c, "per_page", 0),
	}

	items, err := h.svc.List(c.Context(), c.Params("id"), req)
	if err != nil {
		return mapResponseError(c, err)
	}

	return ok(c, fiber.Map{"items": items, "page": max(req.Page, 1)})
}

// GET /api/v1/forms/:id/responses/count
func (h *ResponseHandler) Count(c fiber.Ctx) error {
	n, err := h.svc.Count(c.Context(), c.Params("id"))
	if err != nil {
		return mapResponseError(c, err)
	}

	return ok(c, fiber.Map{"count": n})
}

// GET /api/v1/forms/:id/responses/export
func (h *ResponseHandler) Export(c fiber.Ctx) error {
	var buf bytes.Buffer
	if _, err := h.svc.ExportCSV(c.Context(), c.Params("id"), &buf); err != nil {
		return mapResponseError(c, err)
	}

	c.Attachment(fmt.Sprintf("responses-%s.csv", c.Params("id")))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// GET /api/v1/forms/:id/responses/:responseId
func (h *ResponseHandler) Get(c fiber.Ctx) error {
	r, err := h.svc.Get(c.Context(), c.Params("id"), c.Params("responseId"))
	if err != nil {
		return mapResponseError(c, err)
	}

	return ok(c, r)
}

// DELETE /api/v1/forms/:id/responses/:responseId
func (h *ResponseHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id"), c.Params("responseId")); err != nil {
		return mapResponseError(c, err)
	}

	return noContent(c)
}

func mapResponseError(c fiber.Ctx, err error) error {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		return unprocessable(c, verr.Fields)
	case errors.Is(err, response.ErrFormNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, response.ErrResponseNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, response.ErrFormInactive):
		return conflict(c, err.Error())
	case errors.Is(err, form.ErrSubmitted), errors.Is(err, form.ErrSubmitting):
		return conflict(c, err.Error())
	default:
		return fail(c, err)
	}
}
