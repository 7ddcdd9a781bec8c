package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/service/assistant"
	formsvc "github.com/Alijeyrad/formora_backend/internal/service/form"
)

type FormHandler struct {
	svc formsvc.Service
}

func NewFormHandler(svc formsvc.Service) *FormHandler {
	return &FormHandler{svc: svc}
}

// GET /api/v1/forms
func (h *FormHandler) List(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	forms, err := h.svc.ListByOwner(c.Context(), uid)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, forms)
}

// POST /api/v1/forms
func (h *FormHandler) Create(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var body formsvc.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.Create(c.Context(), uid, body)
	if err != nil {
		return mapFormError(c, err)
	}

	return created(c, f)
}

// POST /api/v1/forms/generate
// Returns an unsaved draft; the client creates it with POST /forms.
func (h *FormHandler) Generate(c fiber.Ctx) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	draft, err := h.svc.Generate(c.Context(), body.Prompt)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, draft)
}

// GET /api/v1/forms/:id  (public)
func (h *FormHandler) Get(c fiber.Ctx) error {
	f, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// PATCH /api/v1/forms/:id
func (h *FormHandler) Update(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var patch form.FormPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}

	f, err := h.svc.Update(c.Context(), uid, c.Params("id"), patch)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, f)
}

// DELETE /api/v1/forms/:id
func (h *FormHandler) Delete(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	if err := h.svc.Delete(c.Context(), uid, c.Params("id")); err != nil {
		return mapFormError(c, err)
	}

	return noContent(c)
}

// POST /api/v1/forms/:id/share
func (h *FormHandler) Share(c fiber.Ctx) error {
	uid, valid := userID(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Email == "" {
		return badRequest(c, "email is required")
	}

	u, err := h.svc.ShareForm(c.Context(), uid, c.Params("id"), body.Email)
	if err != nil {
		return mapFormError(c, err)
	}

	return ok(c, fiber.Map{"user_id": u.ID, "email": u.Email, "role": "viewer"})
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapFormError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, formsvc.ErrFormNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, formsvc.ErrFieldNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, formsvc.ErrCollaboratorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, formsvc.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, formsvc.ErrNoOptions):
		return badRequest(c, err.Error())
	case errors.Is(err, formsvc.ErrIndexOutOfRange):
		return badRequest(c, err.Error())
	case errors.Is(err, formsvc.ErrInvalidForm):
		return badRequest(c, err.Error())
	case errors.Is(err, form.ErrInvalidGenerated):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "the AI assistant returned an unusable form, try again"})
	case errors.Is(err, assistant.ErrEmptyPrompt):
		return badRequest(c, err.Error())
	case errors.Is(err, assistant.ErrUnavailable):
		return serviceUnavailable(c, assistant.ErrUnavailable.Error())
	default:
		return fail(c, err)
	}
}
