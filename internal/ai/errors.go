package ai

import (
	"errors"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timed out")

	ErrMissingCredential = failure.ErrMissingCredential
	ErrAuth              = failure.ErrAuth
	ErrQuota             = failure.ErrQuota
	ErrNetwork           = failure.ErrNetwork
)

// Classify maps a generation error to the category shown to visitors.
func Classify(err error) failure.Category {
	return failure.Classify(err)
}
