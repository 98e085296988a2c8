package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.Generator using the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", failure.ErrMissingCredential)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string  { return "gemini" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = p.model
		}

		for resp, err := range p.client.Models.GenerateContentStream(ctx, model, genai.Text(req.Prompt), nil) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", classify(err)))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("%w: %v", failure.ErrQuota, err)
		}
		return failure.WrapStatus(apiErr.Code, err)
	}
	return failure.WrapTransport(err)
}

var _ models.Generator = (*Provider)(nil)
