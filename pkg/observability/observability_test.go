package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	c := config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "formora",
		Tracing:     config.TracingConfig{Enabled: false, OTLPEndpoint: "otel:4318", SamplingRate: 0.5},
	}
	got := FromCentralConfig(c, "production")
	assert.Equal(t, "production", got.Environment)
	assert.Empty(t, got.OTLPEndpoint, "tracing disabled drops the endpoint")
	assert.Equal(t, 0.5, got.SamplingRate)
}

func TestInitTelemetry_NoExporter(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "formora-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m := NewFormMetrics()
	m.ResponseSubmitted(context.Background(), "f1")
	m.AIRequest(context.Background(), "generate", true)

	app := fiber.New()
	app.Use(FiberMiddleware("/livez"))
	app.Get("/ping", func(c fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/livez", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	resp, err = app.Test(httptest.NewRequest("GET", "/livez", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Trace-Id"), "skipped paths are not traced")
}

func TestStatusOf(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		assert.Equal(t, fiber.StatusNotFound, statusOf(c, fiber.ErrNotFound))
		assert.Equal(t, fiber.StatusInternalServerError, statusOf(c, errors.New("boom")))
		c.Status(fiber.StatusAccepted)
		assert.Equal(t, fiber.StatusAccepted, statusOf(c, nil))
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}

func TestFormMetrics_NilSafe(t *testing.T) {
	var m *FormMetrics
	m.ResponseSubmitted(context.Background(), "f")
	m.ResponseRejected(context.Background(), "validation")
}
