package commands

import (
	"errors"
	"fmt"
	"io"

	"todoctl/internal/exitcode"
	"todoctl/internal/schema"
	"todoctl/internal/todos"
)

// ExitCode maps an error to the process exit code.
// Errors from the service that are not API failures mean the request did
// not complete, so they count as network errors.
func ExitCode(err error) int {
	var (
		validationErr *schema.ValidationError
		refErr        *RefError
		opErr         *todos.OpError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &validationErr), errors.As(err, &refErr):
		return exitcode.UserError
	case errors.As(err, &opErr):
		return exitcode.APIError
	default:
		return exitcode.NetworkError
	}
}

// report prints err to errOut and returns its exit code.
func report(errOut io.Writer, err error) int {
	var opErr *todos.OpError
	if errors.As(err, &opErr) && opErr.StatusCode != 0 {
		fmt.Fprintf(errOut, "error: %v (HTTP %d)\n", err, opErr.StatusCode)
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return ExitCode(err)
}
