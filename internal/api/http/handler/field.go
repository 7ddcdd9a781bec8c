package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/form"
)

// Field and option edits. Each handler returns the whole updated form.

// POST /api/v1/forms/:id/fields
func (h *FormHandler) AddField(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Type string `json:"type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := form.ParseFieldType(body.Type)
	if err != nil {
		return badRequest(c, err.Error())
	}

	f, fd, err := h.svc.AddField(c.Context(), uid, c.Params("id"), t)
	if err != nil {
		return mapFormError(c, err)
	}

	return created(c, fiber.Map{"form": f, "field": fd})
}

// POST /api/v1/forms/:id/fields/reorder
func (h *FormHandler) ReorderFields(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.From == nil || body.To == nil {
		return badRequest(c, "from and to are required")
	}

	f, err := h.svc.ReorderFields(c.Context(), uid, c.Params("id"), *body.From, *body.To)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// PATCH /api/v1/forms/:id/fields/:fieldId
func (h *FormHandler) UpdateField(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var patch form.FieldPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.UpdateField(c.Context(), uid, c.Params("id"), c.Params("fieldId"), patch)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// DELETE /api/v1/forms/:id/fields/:fieldId
func (h *FormHandler) RemoveField(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	f, err := h.svc.RemoveField(c.Context(), uid, c.Params("id"), c.Params("fieldId"))
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// POST /api/v1/forms/:id/fields/:fieldId/options
func (h *FormHandler) AddOption(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	f, err := h.svc.AddOption(c.Context(), uid, c.Params("id"), c.Params("fieldId"))
	if err != nil {
		return mapFormError(c, err)
	}

	return created(c, f)
}

// PATCH /api/v1/forms/:id/fields/:fieldId/options/:index
func (h *FormHandler) UpdateOption(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	index := fiber.Params(c, "index", -1)
	var body struct {
		Value string `json:"value"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.UpdateOption(c.Context(), uid, c.Params("id"), c.Params("fieldId"), index, body.Value)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// DELETE /api/v1/forms/:id/fields/:fieldId/options/:index
func (h *FormHandler) RemoveOption(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	index := fiber.Params(c, "index", -1)
	f, err := h.svc.RemoveOption(c.Context(), uid, c.Params("id"), c.Params("fieldId"), index)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}
