// Package exitcode provides standardized exit codes for depscout
package exitcode

// Exit codes for the depscout CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	PermissionError = 5
	TimeoutError    = 6
	PolicyViolation = 7
	Unsupported     = 8
	ToolNotFound    = 9
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case PermissionError:
		return "Permission error"
	case TimeoutError:
		return "Timeout error"
	case PolicyViolation:
		return "Policy violation"
	case Unsupported:
		return "Unsupported platform or format"
	case ToolNotFound:
		return "Tool not found"
	default:
		return "Unknown error"
	}
}
