package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("form_id", "f1")
	logger.Info("saved")
	logger.Warn("slow")

	assert.Equal(t, 2, bytes.Count(debugBuf.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(warnBuf.Bytes(), []byte("\n")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(warnBuf.Bytes()), &rec))
	assert.Equal(t, "f1", rec["form_id"])
	assert.Equal(t, "slow", rec["msg"])
}

func TestNew_FileOutput(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = "info"
	cfg.Logging.Output.File.Enabled = true
	cfg.Logging.Output.File.Path = filepath.Join(t.TempDir(), "app.log")
	cfg.Observability.ServiceName = "formora"

	logger, closeFn := New(cfg)
	require.NotNil(t, logger)
	logger.Info("hello")
	closeFn()

	assert.FileExists(t, cfg.Logging.Output.File.Path)
}

type stubClaims struct{ id uuid.UUID }

func (c stubClaims) GetUserID() uuid.UUID     { return c.id }
func (c stubClaims) GetSessionID() *uuid.UUID { return nil }

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(contextHandler{slog.NewJSONHandler(&buf, nil)}).With("svc", "formora")

	uid := uuid.New()
	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-1"})
	ctx = reqctx.WithClaims(ctx, stubClaims{uid})
	logger.InfoContext(ctx, "form saved")
	logger.Info("no request")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, uid.String(), rec["user_id"])
	assert.Equal(t, "formora", rec["svc"])

	rec = map[string]any{}
	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.NotContains(t, rec, "request_id")
}
