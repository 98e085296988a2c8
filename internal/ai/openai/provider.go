package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// Provider implements models.Generator using the OpenAI chat completions API.
// It also serves any OpenAI-compatible backend (see the vllm package).
type Provider struct {
	client *openai.Client
	name   string
	model  string
}

func NewProvider(cfg config.OpenAIConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", failure.ErrMissingCredential)
	}
	return &Provider{client: openai.NewClient(cfg.APIKey), name: "openai", model: cfg.Model}, nil
}

// NewCompatibleProvider points the OpenAI client at another base URL.
func NewCompatibleProvider(name, baseURL, apiKey, model string) *Provider {
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	return &Provider{client: openai.NewClientWithConfig(clientCfg), name: name, model: model}
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = p.model
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
			},
			Stream: true,
		})
		if err != nil {
			yield("", fmt.Errorf("%s stream: %w", p.name, classify(err)))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%s stream: %w", p.name, classify(err)))
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return failure.WrapStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return failure.WrapStatus(reqErr.HTTPStatusCode, err)
	}
	return failure.WrapTransport(err)
}

var _ models.Generator = (*Provider)(nil)
