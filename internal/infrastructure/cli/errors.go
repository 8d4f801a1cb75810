package cli

import (
	"errors"
	"fmt"

	"github.com/hammaadworks/specialized-spec-kit/internal/infrastructure/discovery"
	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var locErr *discovery.LocatorError
	if errors.As(err, &locErr) {
		return NewCLIError(
			locErr.Error(),
			"Run the prerequisite setup step (e.g. '/specify') before clarifying",
			err,
		)
	}

	var specErr *discovery.ErrSpecNotFound
	if errors.As(err, &specErr) {
		return NewCLIError(
			specErr.Error(),
			"Create the feature spec first — clarification never creates one",
			err,
		)
	}

	var rejected *coverage.ErrAnswerRejected
	if errors.As(err, &rejected) {
		return NewCLIError(
			rejected.Error(),
			"Pick one of the listed options or answer in 5 words or fewer",
			err,
		)
	}

	if errors.Is(err, application.ErrStateUnknown) {
		return NewCLIError(
			"spec write failed",
			"The on-disk spec may not match memory — re-run 'speckit status' to re-load",
			err,
		)
	}

	return err
}
