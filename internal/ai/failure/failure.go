// Package failure classifies generation errors into the categories shown to
// visitors. Provider packages wrap backend errors with the sentinels here.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrMissingCredential = errors.New("ai provider credential missing")

	ErrAuth    = errors.New("ai provider rejected the API_KEY")
	ErrQuota   = errors.New("ai provider quota exceeded")
	ErrNetwork = errors.New("ai provider network failure")
)

// Category is the user-facing class of a generation failure.
type Category string

const (
	CategoryAuth    Category = "auth"
	CategoryQuota   Category = "quota"
	CategoryNetwork Category = "network"
	CategoryGeneric Category = "generic"
)

// Classify maps a generation error to a Category. Structured sentinels win;
// otherwise the error text is matched against known substrings, in order.
func Classify(err error) Category {
	if err == nil {
		return CategoryGeneric
	}

	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrMissingCredential):
		return CategoryAuth
	case errors.Is(err, ErrQuota):
		return CategoryQuota
	case errors.Is(err, ErrNetwork):
		return CategoryNetwork
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "API_KEY"):
		return CategoryAuth
	case strings.Contains(msg, "quota"), strings.Contains(msg, "limit"):
		return CategoryQuota
	case strings.Contains(msg, "network"), strings.Contains(msg, "fetch"):
		return CategoryNetwork
	}
	return CategoryGeneric
}

// WrapStatus attaches the sentinel matching an HTTP status code, if any.
func WrapStatus(status int, err error) error {
	switch status {
	case 401, 403:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case 429:
		return fmt.Errorf("%w: %v", ErrQuota, err)
	default:
		return err
	}
}

// WrapTransport marks dial and timeout failures as network errors.
// Context cancellation is passed through untouched.
func WrapTransport(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return err
}
