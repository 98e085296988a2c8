package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, p *Provider) ([]string, error) {
	t.Helper()
	var parts []string
	for text, err := range p.Stream(context.Background(), models.GenerateRequest{Prompt: "hi"}) {
		if err != nil {
			return parts, err
		}
		parts = append(parts, text)
	}
	return parts, nil
}

func TestStream_YieldsChunksInOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.True(t, req.Stream)

		fmt.Fprintln(w, `{"response":"### 1. ","done":false}`)
		fmt.Fprintln(w, `{"response":"Your pick","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer ts.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: ts.URL + "/", Model: "llama3"})
	parts, err := collect(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"### 1. ", "Your pick"}, parts)
}

func TestStream_StatusErrorIsClassified(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: ts.URL, Model: "llama3"})
	_, err := collect(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrQuota)
}

func TestStream_InlineError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer ts.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: ts.URL, Model: "missing"})
	parts, err := collect(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
	assert.Equal(t, []string{"partial"}, parts)
}

func TestStream_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: url, Model: "llama3"})
	_, err := collect(t, p)
	require.Error(t, err)
	assert.Equal(t, failure.CategoryNetwork, failure.Classify(err))
}

func TestStream_StopsWhenConsumerBreaks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, `{"response":"p%d","done":false}`+"\n", i)
		}
	}))
	defer ts.Close()

	p := NewProvider(config.OllamaConfig{BaseURL: ts.URL, Model: "llama3"})
	var got []string
	for text, err := range p.Stream(context.Background(), models.GenerateRequest{Prompt: "x"}) {
		require.NoError(t, err)
		got = append(got, text)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"p0", "p1"}, got)
}
