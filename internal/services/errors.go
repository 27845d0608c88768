package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks failures raised by an external binary or API.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks an existing transcript that cannot be trusted; the
	// file is requeued for reprocessing, never fatal.
	ErrValidation = errors.New("validation error")
	// ErrStructural marks corrupt persisted state (chapter log without a
	// sentinel, malformed marker line) that must surface to the caller.
	ErrStructural = errors.New("structural error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures with no better classification.
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

// IsRequeue reports whether the error should send the file back through the
// work queue on the next run instead of recording a hard failure.
func IsRequeue(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStructural reports whether the error indicates corrupt persisted state
// that must not be silently recovered.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
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
