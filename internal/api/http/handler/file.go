package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/formora_backend/internal/service/file"
)

type FileHandler struct {
	svc file.Service
}

func NewFileHandler(svc file.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

// POST /api/v1/files/upload?form_id=  (public, multipart field "file")
func (h *FileHandler) Upload(c fiber.Ctx) error {
	formID := c.Query("form_id")
	if formID == "" {
		return badRequest(c, "form_id is required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	ref, err := h.svc.UploadFile(c.Context(), formID, fh)
	if err != nil {
		return mapFileError(c, err)
	}

	return created(c, ref)
}

// GET /api/v1/files/*
// Redirects to a short-lived presigned URL of the object.
func (h *FileHandler) Download(c fiber.Ctx) error {
	url, err := h.svc.DownloadURL(c.Context(), c.Params("*"))
	if err != nil {
		return mapFileError(c, err)
	}

	return c.Redirect().Status(fiber.StatusFound).To(url)
}

func mapFileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, file.ErrTooLarge):
		return payloadTooLarge(c, err.Error())
	case errors.Is(err, file.ErrEmptyFile):
		return badRequest(c, err.Error())
	case errors.Is(err, file.ErrFormNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, file.ErrFileNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, file.ErrFormInactive):
		return conflict(c, err.Error())
	case errors.Is(err, file.ErrStorageUnavailable):
		return serviceUnavailable(c, err.Error())
	default:
		return fail(c, err)
	}
}
