// Package model defines the data structures for mgapi's commands, responses,
// exit codes, statistics, and configuration.
package model

// Client-side exit codes are negative. Server-reported failures keep their
// positive exit code verbatim.
const (
	ExitSuccess          = 0
	ExitNoResponse       = -1
	ExitValidationFailed = -2
	ExitException        = -3
	ExitDryRun           = -4
)

// DescribeExitCode returns the human-readable meaning of an exit code.
func DescribeExitCode(code int) string {
	switch {
	case code == ExitSuccess:
		return "Success"
	case code > 0:
		return "Server error"
	case code == ExitNoResponse:
		return "No response from server"
	case code == ExitValidationFailed:
		return "Validation failed (client-side)"
	case code == ExitException:
		return "Exception occurred"
	case code == ExitDryRun:
		return "Dry run (not executed)"
	default:
		return "Unknown"
	}
}
