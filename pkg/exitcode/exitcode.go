// Package exitcode provides standardized exit codes for gousemin
package exitcode

import (
	"errors"
	"io/fs"

	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/flow"
	"github.com/fulmenhq/gousemin/pkg/patterns"
)

// Exit codes for gousemin CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	ValidationError   = 3
	FileSystemError   = 4
	FlowError         = 5
	PermissionError   = 6
	UnsupportedFormat = 8
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
	case FlowError:
		return "Flow error"
	case PermissionError:
		return "Permission error"
	case UnsupportedFormat:
		return "Unsupported format"
	default:
		return "Unknown error"
	}
}

// FromError picks the exit code for err. Permission problems win over
// other file system errors.
func FromError(err error) int {
	var (
		blockErr *block.Error
		flowErr  *flow.Error
	)
	switch {
	case err == nil:
		return Success
	case errors.As(err, &blockErr):
		return ValidationError
	case errors.As(err, &flowErr), errors.Is(err, flow.ErrMissingContext):
		return FlowError
	case errors.Is(err, patterns.ErrUnsupportedTable), errors.Is(err, flow.ErrUnknownGenerator):
		return UnsupportedFormat
	case errors.Is(err, fs.ErrPermission):
		return PermissionError
	case errors.Is(err, fs.ErrNotExist):
		return FileSystemError
	default:
		return GeneralError
	}
}
