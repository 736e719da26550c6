package sdk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoContent is returned when a tool result carries no text.
	ErrNoContent = errors.New("flowgate: empty tool result")

	// ErrBlocked matches every *BlockedError.
	ErrBlocked = errors.New("flowgate: action blocked")
)

// ToolError is a failure reported by the server, such as approving a plan
// that does not exist.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("flowgate: tool %s: %s", e.Tool, e.Message)
}

// BlockedError is returned in strict mode when a prerequisite is missing.
// Guidance holds the server's explanation of what to do first.
type BlockedError struct {
	Tool     string
	Guidance string
}

func (e *BlockedError) Error() string {
	reason, _, _ := strings.Cut(strings.TrimPrefix(e.Guidance, blockedPrefix+": "), "\n")
	return fmt.Sprintf("flowgate: %s blocked: %s", e.Tool, reason)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}
