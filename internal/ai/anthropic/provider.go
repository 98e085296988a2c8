package anthropic

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

const maxTokens = 1024

// Provider implements models.Generator using Anthropic.
type Provider struct {
	client *anthropic.Client
	model  string
}

func NewProvider(cfg config.AnthropicConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", failure.ErrMissingCredential)
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Provider{client: &client, model: cfg.Model}, nil
}

func (p *Provider) Name() string  { return "anthropic" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = p.model
		}

		stream := p.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
			},
		})
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}
			if !yield(text.Text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("anthropic stream: %w", classify(err)))
		}
	}
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return failure.WrapStatus(apiErr.StatusCode, err)
	}
	return failure.WrapTransport(err)
}

var _ models.Generator = (*Provider)(nil)
