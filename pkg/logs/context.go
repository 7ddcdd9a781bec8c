package logs

import (
	"context"
	"log/slog"

	"github.com/Alijeyrad/formora_backend/pkg/reqctx"
)

// contextHandler adds the request id and acting user to records logged
// with a request context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := reqctx.RequestIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
		if uid, ok := reqctx.UserIDFromContext(ctx); ok {
			r.AddAttrs(slog.String("user_id", uid.String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
