package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
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

	var transErr *workflow.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(
			"action not allowed now",
			fmt.Sprintf("The workflow is in the '%s' phase. Check 'flowgate status' for the next step", transErr.From),
			err,
		)
	}

	var busyErr *application.PhaseBusyError
	if errors.As(err, &busyErr) {
		return NewCLIError(
			"workflow is busy",
			fmt.Sprintf("Finish the %s phase or run 'flowgate reset' to start over", busyErr.Phase),
			err,
		)
	}

	switch {
	case errors.Is(err, workflow.ErrResearchRequired):
		return NewCLIError("research required", "Run 'flowgate research \"<task>\"' first", err)
	case errors.Is(err, workflow.ErrPlanRequired), errors.Is(err, application.ErrNoPlanToApprove):
		return NewCLIError("no plan found", "Run 'flowgate plan' and write the plan document first", err)
	case errors.Is(err, workflow.ErrPlanNotApproved):
		return NewCLIError("plan is not approved", "Run 'flowgate approve' first", err)
	case errors.Is(err, workflow.ErrImplementationRequired):
		return NewCLIError("nothing to validate", "Run 'flowgate implement' first", err)
	case errors.Is(err, application.ErrNotImplementing):
		return NewCLIError("not implementing", "Run 'flowgate implement' first", err)
	case errors.Is(err, application.ErrNoValidationRunning):
		return NewCLIError("no validation in progress", "Run 'flowgate validate' first", err)
	case errors.Is(err, application.ErrUnknownAction):
		return NewCLIError("unknown tool", "Run 'flowgate call --list' to see the available tools", err)
	case errors.Is(err, application.ErrMissingArgument):
		return NewCLIError("missing argument", "Pass the tool arguments as a JSON object", err)
	}

	return err
}
