// Package models contains shared data models used across the Playbook codebase.
package models

import (
	"context"
	"iter"
)

// Generator is the core interface that all text-generation integrations must implement.
// Never call specific AI providers directly; always inject this interface.
type Generator interface {
	// Stream starts a generation and yields text fragments in arrival order.
	// The sequence is finite and may only be ranged over once. A non-nil error
	// ends the sequence.
	Stream(ctx context.Context, req GenerateRequest) iter.Seq2[string, error]
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
	// Model returns the model identifier sent with every request.
	Model() string
}

// GenerateRequest is the input to a streaming generation.
type GenerateRequest struct {
	Model  string
	Prompt string
}
