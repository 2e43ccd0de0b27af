package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized marks failures caused by a missing, invalid, or revoked
	// API credential. The orchestrator reacts by running credential
	// re-selection before recording the failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformed marks responses the external service produced but that
	// cannot be used, such as a completed animation job without a result
	// locator.
	ErrMalformed = errors.New("malformed response")
	// ErrValidation marks bad input detected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks operations addressed at a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks network and availability failures.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
