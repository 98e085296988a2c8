package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/kiranshivaraju/playbook/internal/ai/anthropic"
	"github.com/kiranshivaraju/playbook/internal/ai/gemini"
	"github.com/kiranshivaraju/playbook/internal/ai/ollama"
	"github.com/kiranshivaraju/playbook/internal/ai/openai"
	"github.com/kiranshivaraju/playbook/internal/ai/vllm"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

// NewProvider constructs the appropriate generator based on config.
// Called once at server startup. A provider whose key is missing returns an
// error wrapping ErrMissingCredential; callers keep serving with the feature off.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.Generator, error) {
	var (
		gen models.Generator
		err error
	)
	switch cfg.Provider {
	case "gemini":
		gen, err = gemini.NewProvider(ctx, cfg.Gemini)
	case "ollama":
		gen = ollama.NewProvider(cfg.Ollama)
	case "vllm":
		gen = vllm.NewProvider(cfg.VLLM)
	case "openai":
		gen, err = openai.NewProvider(cfg.OpenAI)
	case "anthropic":
		gen, err = anthropic.NewProvider(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, ollama, vllm, openai, anthropic", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.InferenceTimeout > 0 {
		gen = WithTimeout(gen, cfg.InferenceTimeout)
	}
	return gen, nil
}

type timeoutGenerator struct {
	models.Generator
	timeout time.Duration
}

// WithTimeout bounds every stream of gen to d. A stream cut short by the
// bound ends with ErrInferenceTimeout.
func WithTimeout(gen models.Generator, d time.Duration) models.Generator {
	return &timeoutGenerator{Generator: gen, timeout: d}
}

func (g *timeoutGenerator) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		for text, err := range g.Generator.Stream(ctx, req) {
			if err != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					err = fmt.Errorf("%w after %s: %v", ErrInferenceTimeout, g.timeout, err)
				}
				yield("", err)
				return
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
