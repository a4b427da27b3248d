// Package ragerr defines the error taxonomy shared across the pipeline.
// External-capability failures are normalized to these values before they
// cross the composer boundary, so callers never see provider-specific
// detail.
package ragerr

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable indicates an embedding or language-model call
	// failed at the transport level. Retryable with bounded backoff.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGenerationFailed indicates the language-model call exhausted its
	// retry budget. No partial answer is returned.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyCorpus indicates retrieval ran against an index with zero
	// entries. The service maps this to a fixed "no relevant information"
	// answer rather than an error response.
	ErrEmptyCorpus = errors.New("vector index holds no entries")
)

// ConfigurationError is fatal and raised at construction time, for example
// on an embedding-dimension mismatch between config and a persisted index.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for the given field.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Unavailable wraps a provider transport failure so callers can match it
// with errors.Is(err, ErrProviderUnavailable) while keeping the cause in
// the chain for logging.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
