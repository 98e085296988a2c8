package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

// Provider implements models.Generator using Ollama's /api/generate endpoint.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{},
	}
}

func (p *Provider) Name() string  { return "ollama" }
func (p *Provider) Model() string { return p.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateChunk is one NDJSON line of a streaming response.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (p *Provider) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		model := req.Model
		if model == "" {
			model = p.model
		}

		body, err := json.Marshal(generateRequest{Model: model, Prompt: req.Prompt, Stream: true})
		if err != nil {
			yield("", fmt.Errorf("encoding ollama request: %w", err))
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			yield("", fmt.Errorf("building request: %w", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			yield("", fmt.Errorf("ollama request: %w", failure.WrapTransport(err)))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			yield("", failure.WrapStatus(resp.StatusCode,
				fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk generateChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				yield("", fmt.Errorf("decoding ollama chunk: %w", err))
				return
			}
			if chunk.Error != "" {
				yield("", fmt.Errorf("ollama: %s", chunk.Error))
				return
			}
			if chunk.Response != "" && !yield(chunk.Response, nil) {
				return
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading ollama stream: %w", failure.WrapTransport(err)))
		}
	}
}

var _ models.Generator = (*Provider)(nil)
