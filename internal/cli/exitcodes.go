package cli

import (
	"errors"

	"github.com/nhle/channel-kanban/internal/api"
	"github.com/nhle/channel-kanban/internal/board"
)

// Exit codes for CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError covers network errors, backend errors and anything that
	// does not fit a narrower code.
	ExitError = 1

	// ExitUsage indicates missing or malformed arguments.
	ExitUsage = 2

	// ExitNotFound indicates an entity, note or history entry that does not
	// exist.
	ExitNotFound = 3

	// ExitDataErr indicates a response or input file that could not be
	// parsed.
	ExitDataErr = 4

	// ExitValidation indicates input rejected before any request was sent
	// (empty note, unknown color or column).
	ExitValidation = 5
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(err error) error { return &usageError{err: err} }

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var (
		ue *usageError
		de *api.DecodeError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsage
	case api.IsNotFound(err), errors.Is(err, board.ErrNoteNotFound):
		return ExitNotFound
	case errors.As(err, &de):
		return ExitDataErr
	case errors.Is(err, board.ErrEmptyNote),
		errors.Is(err, board.ErrInvalidColor),
		errors.Is(err, board.ErrUnknownColumn),
		errors.Is(err, board.ErrTransitionNotAllowed):
		return ExitValidation
	default:
		return ExitError
	}
}

// errorCode names an error for machine-readable output.
func errorCode(err error) string {
	switch ExitCode(err) {
	case ExitUsage:
		return "USAGE"
	case ExitNotFound:
		return "NOT_FOUND"
	case ExitDataErr:
		return "BAD_RESPONSE"
	case ExitValidation:
		return "VALIDATION"
	}
	switch {
	case api.IsAuthError(err):
		return "UNAUTHORIZED"
	case api.IsTransport(err):
		return "UNREACHABLE"
	}
	return "ERROR"
}
