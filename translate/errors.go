package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTranslatable is returned when the file is not a translatable manifest entry.
	ErrNotTranslatable = errors.New("file is not marked translatable")
	// ErrUnknownTarget is returned when the target language is not a configured language directory.
	ErrUnknownTarget = errors.New("target language not configured")
	// ErrNoCredentials is returned when the pipeline is constructed without provider credentials.
	ErrNoCredentials = errors.New("no provider credentials configured")
)

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	// KindTransient covers rate limits, 5xx responses, and network
	// errors — a retry by the caller may succeed.
	KindTransient ErrorKind = iota
	// KindPermanent covers rejections that retrying won't fix.
	KindPermanent
	// KindAuthMissing covers absent or rejected credentials.
	KindAuthMissing
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindAuthMissing:
		return "auth"
	}
	return "unknown"
}

// ProviderError is a classified failure from the translation provider.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// newProviderError wraps err with a classification.
func newProviderError(kind ErrorKind, format string, args ...any) *ProviderError {
	return &ProviderError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
