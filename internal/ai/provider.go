package ai

import (
	"context"
	"errors"
	"fmt"
)

// Options tune a single completion request.
type Options struct {
	Temperature float32
	JSON        bool
}

// Provider is a text-completion backend.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
	Name() string
	Model() string
}

// ProviderError reports a failed call to an LLM backend (network, auth, timeout or quota).
type ProviderError struct {
	Provider  string
	Err       error
	Temporary bool
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewProviderError wraps err unless it is already a ProviderError.
func NewProviderError(provider string, err error, temporary bool) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err, Temporary: temporary}
}

// IsProviderError reports whether err came from an LLM backend.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
