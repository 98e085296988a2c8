package vllm

import (
	"strings"

	"github.com/kiranshivaraju/playbook/internal/ai/openai"
	"github.com/kiranshivaraju/playbook/internal/config"
)

// NewProvider returns a generator for a vLLM server. vLLM exposes the OpenAI
// chat completions API under /v1 and accepts any bearer token.
func NewProvider(cfg config.VLLMConfig) *openai.Provider {
	base := strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"
	return openai.NewCompatibleProvider("vllm", base, "vllm", cfg.Model)
}
