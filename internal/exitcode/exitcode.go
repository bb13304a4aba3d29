// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, unknown todo).
	UserError = 1

	// APIError indicates the server answered with a failure.
	APIError = 2

	// NetworkError indicates the request never completed (offline, DNS, reset).
	NetworkError = 3
)
