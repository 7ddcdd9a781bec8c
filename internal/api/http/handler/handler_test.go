package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
	"github.com/Alijeyrad/formora_backend/internal/service/assistant"
	"github.com/Alijeyrad/formora_backend/internal/service/file"
	formsvc "github.com/Alijeyrad/formora_backend/internal/service/form"
	"github.com/Alijeyrad/formora_backend/internal/service/response"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
)

var testUser = uuid.MustParse("0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")

// asUser stands in for AuthRequired.
func asUser(c fiber.Ctx) error {
	c.Locals(pasetotoken.CtxKeyClaims, &pasetotoken.Claims{UserID: testUser, Type: pasetotoken.TokenTypeAccess})
	return c.Next()
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, http.Header, string) {
	t.Helper()
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

// ---------------------------------------------------------------------------
// forms
// ---------------------------------------------------------------------------

type fakeFormService struct {
	formsvc.Service
	err     error
	created formsvc.CreateRequest
	owner   uuid.UUID
	reorder [2]int
	index   int
}

func (s *fakeFormService) Create(_ context.Context, owner uuid.UUID, req formsvc.CreateRequest) (form.Form, error) {
	s.owner, s.created = owner, req
	if s.err != nil {
		return form.Form{}, s.err
	}
	return form.Form{ID: "f1", OwnerID: owner.String(), Title: req.Title, Fields: req.Fields}, nil
}

func (s *fakeFormService) Get(_ context.Context, id string) (form.Form, error) {
	if s.err != nil {
		return form.Form{}, s.err
	}
	return form.Form{ID: id, Title: "Survey"}, nil
}

func (s *fakeFormService) Generate(context.Context, string) (form.Form, error) {
	return form.Form{}, s.err
}

func (s *fakeFormService) ReorderFields(_ context.Context, _ uuid.UUID, id string, from, to int) (form.Form, error) {
	s.reorder = [2]int{from, to}
	return form.Form{ID: id}, s.err
}

func (s *fakeFormService) UpdateOption(_ context.Context, _ uuid.UUID, id, _ string, index int, _ string) (form.Form, error) {
	s.index = index
	return form.Form{ID: id}, s.err
}

func formApp(svc formsvc.Service) *fiber.App {
	h := NewFormHandler(svc)
	app := fiber.New()
	app.Post("/forms", asUser, h.Create)
	app.Post("/forms/generate", asUser, h.Generate)
	app.Get("/forms/:id", h.Get)
	app.Patch("/forms/:id", h.Update) // no auth on purpose
	app.Post("/forms/:id/fields/reorder", asUser, h.ReorderFields)
	app.Patch("/forms/:id/fields/:fieldId/options/:index", asUser, h.UpdateOption)
	return app
}

func TestFormHandler_Create(t *testing.T) {
	svc := &fakeFormService{}
	app := formApp(svc)

	status, _, body := do(t, app, jsonReq(http.MethodPost, "/forms",
		`{"title":"Survey","fields":[{"id":"field_1","type":"text","label":"Name"}],"is_active":true}`))

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Survey", gjson.Get(body, "data.title").String())
	assert.Equal(t, "field_1", gjson.Get(body, "data.fields.0.id").String())
	assert.Equal(t, testUser, svc.owner)
	assert.True(t, svc.created.IsActive)
}

func TestFormHandler_BadBody(t *testing.T) {
	app := formApp(&fakeFormService{})

	status, _, body := do(t, app, jsonReq(http.MethodPost, "/forms", `{"title":`))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", gjson.Get(body, "error").String())
}

func TestFormHandler_Unauthorized(t *testing.T) {
	app := formApp(&fakeFormService{})

	status, _, _ := do(t, app, jsonReq(http.MethodPatch, "/forms/f1", `{"title":"x"}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestFormHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{formsvc.ErrFormNotFound, fiber.StatusNotFound},
		{formsvc.ErrForbidden, fiber.StatusForbidden},
		{fmt.Errorf("%w: title is required", formsvc.ErrInvalidForm), fiber.StatusBadRequest},
		{assistant.ErrEmptyPrompt, fiber.StatusBadRequest},
		{fmt.Errorf("%w: %w", assistant.ErrUnavailable, context.DeadlineExceeded), fiber.StatusServiceUnavailable},
		{fmt.Errorf("%w: no fields", form.ErrInvalidGenerated), fiber.StatusBadGateway},
		{assert.AnError, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := formApp(&fakeFormService{err: tt.err})
			status, _, body := do(t, app, jsonReq(http.MethodPost, "/forms/generate", `{"prompt":"x"}`))
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, gjson.Get(body, "error").String())
		})
	}
}

func TestFormHandler_Get_Public(t *testing.T) {
	app := formApp(&fakeFormService{})

	status, _, body := do(t, app, httptest.NewRequest(http.MethodGet, "/forms/abc", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "abc", gjson.Get(body, "data.id").String())
}

func TestFormHandler_ReorderFields(t *testing.T) {
	svc := &fakeFormService{}
	app := formApp(svc)

	status, _, _ := do(t, app, jsonReq(http.MethodPost, "/forms/f1/fields/reorder", `{"from":0,"to":2}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, [2]int{0, 2}, svc.reorder)

	status, _, _ = do(t, app, jsonReq(http.MethodPost, "/forms/f1/fields/reorder", `{"to":2}`))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestFormHandler_UpdateOption_BadIndex(t *testing.T) {
	svc := &fakeFormService{err: formsvc.ErrIndexOutOfRange}
	app := formApp(svc)

	status, _, _ := do(t, app, jsonReq(http.MethodPatch, "/forms/f1/fields/field_1/options/abc", `{"value":"x"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, -1, svc.index, "unparsable index reaches the service as -1")
}

// ---------------------------------------------------------------------------
// responses
// ---------------------------------------------------------------------------

type fakeResponseService struct {
	response.Service
	err    error
	values map[string]json.RawMessage
	source string
	list   response.ListRequest
}

func (s *fakeResponseService) Submit(_ context.Context, formID string, values map[string]json.RawMessage, source string) (form.Response, error) {
	s.values, s.source = values, source
	if s.err != nil {
		return form.Response{}, s.err
	}
	return form.Response{ID: "r1", FormID: formID}, nil
}

func (s *fakeResponseService) List(_ context.Context, _ string, req response.ListRequest) ([]form.Response, error) {
	s.list = req
	return []form.Response{{ID: "r1"}}, s.err
}

func (s *fakeResponseService) ExportCSV(_ context.Context, _ string, w io.Writer) (form.Form, error) {
	if s.err != nil {
		return form.Form{}, s.err
	}
	_, err := io.WriteString(w, "\"Submitted At\"\n")
	return form.Form{}, err
}

func responseApp(svc response.Service) *fiber.App {
	h := NewResponseHandler(svc)
	app := fiber.New()
	app.Post("/forms/:id/responses", h.Submit)
	app.Get("/forms/:id/responses", h.List)
	app.Get("/forms/:id/responses/export", h.Export)
	return app
}

func TestResponseHandler_Submit(t *testing.T) {
	svc := &fakeResponseService{}
	app := responseApp(svc)

	status, _, body := do(t, app, jsonReq(http.MethodPost, "/forms/f1/responses", `{"values":{"field_1":"Ada","field_2":["a"]}}`))
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "r1", gjson.Get(body, "data.id").String())
	assert.JSONEq(t, `"Ada"`, string(svc.values["field_1"]))
	assert.NotEmpty(t, svc.source)
}

func TestResponseHandler_SubmitRejected(t *testing.T) {
	verr := &form.ValidationError{Fields: []form.FieldError{{FieldID: "field_2", Reason: "required"}}}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("submit: %w", verr), fiber.StatusUnprocessableEntity},
		{"inactive", response.ErrFormInactive, fiber.StatusConflict},
		{"missing", response.ErrFormNotFound, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := responseApp(&fakeResponseService{err: tt.err})
			status, _, body := do(t, app, jsonReq(http.MethodPost, "/forms/f1/responses", `{"values":{}}`))
			assert.Equal(t, tt.want, status)
			if tt.want == fiber.StatusUnprocessableEntity {
				assert.Equal(t, "field_2", gjson.Get(body, "fields.0.field_id").String())
			}
		})
	}
}

func TestResponseHandler_ListPaging(t *testing.T) {
	svc := &fakeResponseService{}
	app := responseApp(svc)

	status, _, body := do(t, app, httptest.NewRequest(http.MethodGet, "/forms/f1/responses?page=3&per_page=20", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, response.ListRequest{Page: 3, PerPage: 20}, svc.list)
	assert.Equal(t, int64(3), gjson.Get(body, "data.page").Int())
	assert.Equal(t, "r1", gjson.Get(body, "data.items.0.id").String())
}

func TestResponseHandler_Export(t *testing.T) {
	app := responseApp(&fakeResponseService{})

	status, header, body := do(t, app, httptest.NewRequest(http.MethodGet, "/forms/f1/responses/export", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, header.Get(fiber.HeaderContentDisposition), "responses-f1.csv")
	assert.Contains(t, header.Get(fiber.HeaderContentType), "text/csv")
	assert.Equal(t, "\"Submitted At\"\n", body)
}

// ---------------------------------------------------------------------------
// analytics
// ---------------------------------------------------------------------------

type fakeAnalyticsService struct {
	analytics.Service
	question string
	err      error
}

func (s *fakeAnalyticsService) Summarize(_ context.Context, formID, question string) (analytics.Summary, error) {
	s.question = question
	return analytics.Summary{FormID: formID, Question: question, Text: "ok"}, s.err
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	svc := &fakeAnalyticsService{}
	h := NewAnalyticsHandler(svc)
	app := fiber.New()
	app.Post("/forms/:id/analytics/summary", h.Summary)

	status, _, body := do(t, app, httptest.NewRequest(http.MethodPost, "/forms/f1/analytics/summary", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", gjson.Get(body, "data.summary").String())
	assert.Empty(t, svc.question)

	status, _, _ = do(t, app, jsonReq(http.MethodPost, "/forms/f1/analytics/summary", `{"question":"Which color?"}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Which color?", svc.question)

	svc.err = analytics.ErrFormNotFound
	status, _, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/forms/f1/analytics/summary", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

// ---------------------------------------------------------------------------
// files
// ---------------------------------------------------------------------------

type fakeFileService struct {
	file.Service
	err  error
	name string
	key  string
}

func (s *fakeFileService) UploadFile(_ context.Context, formID string, fh *multipart.FileHeader) (form.FileRef, error) {
	s.name = fh.Filename
	if s.err != nil {
		return form.FileRef{}, s.err
	}
	return form.FileRef{FileID: "uploads/" + formID + "/x.pdf", FileName: fh.Filename, FileURL: file.URLPrefix + "uploads/" + formID + "/x.pdf"}, nil
}

func (s *fakeFileService) DownloadURL(_ context.Context, key string) (string, error) {
	s.key = key
	return "https://bucket.example.com/" + key + "?sig=1", s.err
}

func fileApp(svc file.Service) *fiber.App {
	h := NewFileHandler(svc)
	app := fiber.New()
	app.Post("/files/upload", h.Upload)
	app.Get("/files/*", h.Download)
	return app
}

func uploadReq(t *testing.T, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestFileHandler_Upload(t *testing.T) {
	svc := &fakeFileService{}
	app := fileApp(svc)

	status, _, body := do(t, app, uploadReq(t, "/files/upload?form_id=f1"))
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "cv.pdf", svc.name)
	assert.Equal(t, "/api/v1/files/uploads/f1/x.pdf", gjson.Get(body, "data.file_url").String())

	status, _, _ = do(t, app, uploadReq(t, "/files/upload"))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestFileHandler_UploadErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: 2.0 MiB is over the 1.0 MiB limit", file.ErrTooLarge), fiber.StatusRequestEntityTooLarge},
		{file.ErrFormInactive, fiber.StatusConflict},
		{file.ErrStorageUnavailable, fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, _, _ := do(t, fileApp(&fakeFileService{err: tt.err}), uploadReq(t, "/files/upload?form_id=f1"))
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestFileHandler_Download(t *testing.T) {
	svc := &fakeFileService{}
	app := fileApp(svc)

	status, header, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/files/uploads/f1/x.pdf", nil))
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, "uploads/f1/x.pdf", svc.key)
	assert.Equal(t, "https://bucket.example.com/uploads/f1/x.pdf?sig=1", header.Get(fiber.HeaderLocation))

	svc.err = file.ErrFileNotFound
	status, _, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/files/uploads/f1/missing.pdf", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}
