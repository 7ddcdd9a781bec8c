package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/pkg/gemini"
	"github.com/Alijeyrad/formora_backend/pkg/observability"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// GenerateForm turns a free-text request into an unsaved, inactive draft.
	GenerateForm(ctx context.Context, prompt string) (form.Form, error)
	// Analyze answers question about responses, or gives a general analysis
	// when question is empty.
	Analyze(ctx context.Context, f form.Form, responses []form.Response, question string) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type assistantService struct {
	gen     gemini.Generator
	metrics *observability.FormMetrics
}

func New(gen gemini.Generator, metrics *observability.FormMetrics) Service {
	if gen == nil {
		gen = gemini.Disabled{}
	}
	return &assistantService{gen: gen, metrics: metrics}
}

func (s *assistantService) GenerateForm(ctx context.Context, prompt string) (form.Form, error) {
	if strings.TrimSpace(prompt) == "" {
		return form.Form{}, ErrEmptyPrompt
	}

	text, err := s.gen.Generate(ctx, gemini.Request{
		System:      generatorSystem,
		Prompt:      generationPrompt(prompt),
		JSON:        true,
		Temperature: 0.4,
	})
	s.metrics.AIRequest(ctx, "generate", err != nil)
	if err != nil {
		slog.Warn("form generation failed", "err", err)
		return form.Form{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	f, err := form.ParseGenerated(text)
	if err != nil {
		slog.Warn("generated form rejected", "err", err)
		return form.Form{}, err
	}
	return f, nil
}

func (s *assistantService) Analyze(ctx context.Context, f form.Form, responses []form.Response, question string) (string, error) {
	if len(responses) == 0 {
		return "", ErrNoResponses
	}

	text, err := s.gen.Generate(ctx, gemini.Request{
		System: analystSystem,
		Prompt: analysisPrompt(f, responses, question),
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = gemini.ErrEmptyResponse
	}
	if err != nil {
		if !errors.Is(err, gemini.ErrDisabled) {
			slog.Warn("response analysis failed", "form_id", f.ID, "err", err)
		}
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}
