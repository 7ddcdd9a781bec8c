// Package gemini is a small rate-limited wrapper around the Gemini API.
package gemini

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/Alijeyrad/formora_backend/config"
)

const DefaultModel = "gemini-2.5-flash"

var (
	ErrDisabled      = errors.New("gemini: AI is disabled")
	ErrEmptyResponse = errors.New("gemini: empty response")
)

// Generator is what the assistant depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Request struct {
	System string
	Prompt string
	// JSON asks for application/json output.
	JSON        bool
	Temperature float32 // zero keeps the model default
}

type Options struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	Timeout           time.Duration
	// BaseURL overrides the API endpoint.
	BaseURL string
}

func FromCentralConfig(c config.AIConfig) Options {
	return Options{
		APIKey:            c.APIKey,
		Model:             c.Model,
		RequestsPerMinute: c.RequestsPerMinute,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

type Client struct {
	genai   *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	return &Client{
		genai:   gc,
		model:   cmp.Or(opts.Model, DefaultModel),
		limiter: rate.NewLimiter(limit, max(1, opts.RequestsPerMinute/10)),
		timeout: cmp.Or(opts.Timeout, time.Minute),
	}, nil
}

func (c *Client) Model() string { return c.model }

// Generate waits for a rate-limit token, then sends a single-turn request and
// returns the concatenated text parts.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini: rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Disabled is the Generator used when AI is turned off.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) { return "", ErrDisabled }
