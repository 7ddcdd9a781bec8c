package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
	svcfile "github.com/Alijeyrad/formora_backend/internal/service/file"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
	"github.com/Alijeyrad/formora_backend/pkg/email"
)

const (
	workerTimeout = 30 * time.Second
	previewFields = 3
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc        fx.Lifecycle
	Cfg       *config.Config
	NC        *nats.Conn
	DB        *repo.Client
	Email     *email.Client
	Analytics analytics.Service
	Files     svcfile.Service
}

func RegisterWorkers(p WorkerParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := startResponseEmailWorker(p.NC, p.DB, p.Email, email.FromCentralConfig(p.Cfg.Email)); err != nil {
				return err
			}
			return startFormCleanupWorker(p.NC, p.Analytics, p.Files)
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// formIDFromSubject returns the trailing token of prefix.<formID>.
func formIDFromSubject(subject, prefix string) (string, bool) {
	id, ok := strings.CutPrefix(subject, prefix+".")
	if !ok || id == "" || strings.Contains(id, ".") {
		return "", false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// response_email_worker
// ---------------------------------------------------------------------------

// ResponseStore is the part of the repo the email worker reads.
type ResponseStore interface {
	GetForm(ctx context.Context, id string) (form.Form, error)
	GetResponse(ctx context.Context, id string) (form.Response, error)
	CountResponsesByForm(ctx context.Context, formID string) (int, error)
	GetUser(ctx context.Context, id string) (repo.User, error)
}

// Mailer is satisfied by *email.Client.
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, m email.Message) error
}

func startResponseEmailWorker(nc *nats.Conn, db ResponseStore, mailer Mailer, cfg email.Config) error {
	if !mailer.Enabled() {
		slog.Info("response_email_worker: email disabled, not subscribing")
		return nil
	}

	// Queue group so a response is mailed once however many instances run.
	_, err := nc.QueueSubscribe(constants.SubjectResponseSubmitted+".*", "response-email", func(msg *nats.Msg) {
		formID, ok := formIDFromSubject(msg.Subject, constants.SubjectResponseSubmitted)
		if !ok {
			return
		}
		responseID := strings.TrimSpace(string(msg.Data))

		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		if err := notifyOwner(ctx, db, mailer, cfg, formID, responseID); err != nil {
			slog.Warn("response_email_worker: notification failed", "form_id", formID, "response_id", responseID, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", constants.SubjectResponseSubmitted, err)
	}
	return nil
}

func notifyOwner(ctx context.Context, db ResponseStore, mailer Mailer, cfg email.Config, formID, responseID string) error {
	f, err := db.GetForm(ctx, formID)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}
	r, err := db.GetResponse(ctx, responseID)
	if err != nil {
		return fmt.Errorf("load response: %w", err)
	}
	if r.FormID != f.ID {
		return fmt.Errorf("response %s belongs to form %s", r.ID, r.FormID)
	}
	owner, err := db.GetUser(ctx, f.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	total, err := db.CountResponsesByForm(ctx, formID)
	if err != nil {
		return fmt.Errorf("count responses: %w", err)
	}

	msg := email.BuildNewResponseEmail(cfg, email.NewResponseData{
		OwnerName:      owner.Name,
		OwnerEmail:     owner.Email,
		FormID:         f.ID,
		FormTitle:      f.Title,
		TotalResponses: int64(total),
		SubmittedAt:    r.SubmittedAt,
		Preview:        previewLines(f, r),

		RespondentEmail: respondentEmail(f, r),
	})
	return mailer.Send(ctx, msg)
}

// previewLines renders the first answered fields as "Label: answer".
func previewLines(f form.Form, r form.Response) []string {
	var lines []string
	for _, fd := range f.Fields {
		if len(lines) == previewFields {
			break
		}
		text := form.CellText(r.Values[fd.ID])
		if text == "" {
			continue
		}
		lines = append(lines, fd.Label+": "+text)
	}
	return lines
}

// respondentEmail returns the first answered email field, if any.
func respondentEmail(f form.Form, r form.Response) string {
	for _, fd := range f.Fields {
		if fd.Type != form.TypeEmail {
			continue
		}
		if v, ok := r.Values[fd.ID].(form.TextValue); ok && v != "" {
			return string(v)
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// form_cleanup_worker
// ---------------------------------------------------------------------------

// FormCleaner drops data derived from a deleted form.
type FormCleaner interface {
	Invalidate(ctx context.Context, formID string) error
}

// FileCleaner removes the uploads of a deleted form.
type FileCleaner interface {
	DeleteForm(ctx context.Context, formID string) (int, error)
}

func startFormCleanupWorker(nc *nats.Conn, stats FormCleaner, files FileCleaner) error {
	_, err := nc.QueueSubscribe(constants.SubjectFormDeleted+".*", "form-cleanup", func(msg *nats.Msg) {
		formID, ok := formIDFromSubject(msg.Subject, constants.SubjectFormDeleted)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		cleanupForm(ctx, stats, files, formID)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", constants.SubjectFormDeleted, err)
	}
	return nil
}

func cleanupForm(ctx context.Context, stats FormCleaner, files FileCleaner, formID string) {
	if err := stats.Invalidate(ctx, formID); err != nil {
		slog.Warn("form_cleanup_worker: cache invalidation failed", "form_id", formID, "err", err)
	}
	n, err := files.DeleteForm(ctx, formID)
	if err != nil {
		slog.Warn("form_cleanup_worker: file cleanup failed", "form_id", formID, "err", err)
		return
	}
	slog.Info("form_cleanup_worker: form cleaned up", "form_id", formID, "files_deleted", n)
}
