package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/service/assistant"
	"github.com/Alijeyrad/formora_backend/pkg/observability"
	rediscache "github.com/Alijeyrad/formora_backend/pkg/redis"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Summary is a written analysis. Fallback is set when the text was produced
// locally because the AI analyst could not answer.
type Summary struct {
	FormID   string `json:"form_id"`
	Question string `json:"question,omitempty"`
	Text     string `json:"summary"`
	Fallback bool   `json:"fallback"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Report(ctx context.Context, formID string) (form.Report, error)
	Field(ctx context.Context, formID, fieldID string) (form.FieldReport, error)
	Summarize(ctx context.Context, formID, question string) (Summary, error)
	// Invalidate drops the cached report of formID.
	Invalidate(ctx context.Context, formID string) error
}

type Store interface {
	GetForm(ctx context.Context, id string) (form.Form, error)
	ListResponsesByForm(ctx context.Context, formID string, opts repo.ListOptions) ([]form.Response, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type analyticsService struct {
	store   Store
	cache   *rediscache.Cache
	ai      assistant.Service
	metrics *observability.FormMetrics
}

// New builds the service. A nil cache computes every report from scratch.
func New(store Store, cache *rediscache.Cache, ai assistant.Service, metrics *observability.FormMetrics) Service {
	return &analyticsService{store: store, cache: cache, ai: ai, metrics: metrics}
}

func (s *analyticsService) Report(ctx context.Context, formID string) (form.Report, error) {
	if s.cache != nil {
		var cached form.Report
		hit, err := s.cache.Get(ctx, formID, &cached)
		if err != nil {
			slog.Warn("analytics cache read failed", "form_id", formID, "err", err)
		}
		if hit {
			return cached, nil
		}
	}

	f, responses, err := s.load(ctx, formID)
	if err != nil {
		return form.Report{}, err
	}
	rep := form.BuildReport(f, responses)

	if s.cache != nil {
		if err := s.cache.Set(ctx, formID, rep); err != nil {
			slog.Warn("analytics cache write failed", "form_id", formID, "err", err)
		}
	}
	return rep, nil
}

func (s *analyticsService) Field(ctx context.Context, formID, fieldID string) (form.FieldReport, error) {
	f, responses, err := s.load(ctx, formID)
	if err != nil {
		return form.FieldReport{}, err
	}
	fd, ok := f.Field(fieldID)
	if !ok {
		return form.FieldReport{}, ErrFieldNotFound
	}
	buckets := form.AggregateField(f, fieldID, responses)
	if buckets == nil {
		buckets = []form.Bucket{}
	}
	return form.FieldReport{
		FieldID:  fd.ID,
		Label:    fd.Label,
		Type:     fd.Type,
		Answered: form.Answered(fd, responses),
		Buckets:  buckets,
	}, nil
}

func (s *analyticsService) Summarize(ctx context.Context, formID, question string) (Summary, error) {
	f, responses, err := s.load(ctx, formID)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{FormID: formID, Question: question}

	text, err := s.ai.Analyze(ctx, f, responses, question)
	if err == nil {
		s.metrics.AIRequest(ctx, "analyze", false)
		out.Text = text
		return out, nil
	}

	slog.Info("using fallback analysis", "form_id", formID, "reason", err)
	s.metrics.AIRequest(ctx, "analyze", true)
	out.Fallback = true
	if question != "" {
		out.Text = form.FallbackAnalysis(f, responses, question)
	} else {
		out.Text = form.FallbackSummary(f, responses)
	}
	return out, nil
}

func (s *analyticsService) Invalidate(ctx context.Context, formID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, formID)
}

func (s *analyticsService) load(ctx context.Context, formID string) (form.Form, []form.Response, error) {
	f, err := s.store.GetForm(ctx, formID)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Form{}, nil, ErrFormNotFound
		}
		return form.Form{}, nil, fmt.Errorf("get form: %w", err)
	}
	responses, err := s.store.ListResponsesByForm(ctx, formID, repo.ListOptions{})
	if err != nil {
		return form.Form{}, nil, fmt.Errorf("list responses: %w", err)
	}
	return f, responses, nil
}
