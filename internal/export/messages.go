package export

// messages.go maps export failures to user-facing messages with codes for
// support reference. The technical error is logged by the Coordinator; only
// the mapped message reaches the Result.
//
//	EXP001 - Unsupported format: the requested format has no encoder
//	EXP002 - No rows: the filtered row set is empty
//	EXP003 - No columns: every column is hidden or none were given
//	EXP004 - Busy: another export on this table is still running
//	EXP005 - Column failure: a derived column could not be computed
//	EXP006 - Invalid option: an export option is out of range
//	EXP007 - Cancelled: the request was cancelled before the file was built
//	EXP008 - Encoder failure: the file could not be generated
//	ERR000 - Unknown

import (
	"context"
	"errors"

	"github.com/JonMunkholm/datatable/internal/table"
)

var (
	// ErrUnsupportedFormat is the root of "Unsupported export format: <tag>".
	ErrUnsupportedFormat = errors.New("Unsupported export format")

	ErrNoRows           = errors.New("no rows to export")
	ErrNoColumns        = errors.New("no columns to export")
	ErrExportInProgress = errors.New("export already in progress")
	ErrInvalidOption    = errors.New("invalid export option")
	ErrEncode           = errors.New("encode failed")
)

// UserMessage is a failure description safe to show to end users.
type UserMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// MapError converts an export error into a UserMessage.
// Returns a zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	switch {
	case err == nil:
		return UserMessage{}
	case errors.Is(err, ErrUnsupportedFormat):
		// The wrapped error already reads "Unsupported export format: <tag>".
		return UserMessage{Code: "EXP001", Message: err.Error(), Action: "Choose one of the offered formats"}
	case errors.Is(err, ErrNoRows):
		return UserMessage{Code: "EXP002", Message: "There are no rows to export", Action: "Adjust the filters so at least one row is shown"}
	case errors.Is(err, ErrNoColumns):
		return UserMessage{Code: "EXP003", Message: "There are no columns to export", Action: "Show at least one column"}
	case errors.Is(err, ErrExportInProgress):
		return UserMessage{Code: "EXP004", Message: "An export is already in progress", Action: "Wait for the current export to finish"}
	case errors.Is(err, table.ErrAccessor):
		return UserMessage{Code: "EXP005", Message: "A column value could not be computed", Action: "Hide the failing column or fix its data and try again"}
	case errors.Is(err, ErrInvalidOption):
		return UserMessage{Code: "EXP006", Message: "An export option is invalid", Action: "Check the font size, orientation and sheet name"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return UserMessage{Code: "EXP007", Message: "The export was cancelled", Action: "Start the export again"}
	case errors.Is(err, ErrEncode):
		return UserMessage{Code: "EXP008", Message: "The file could not be generated", Action: "Try again or choose a different format"}
	default:
		return UserMessage{Code: "ERR000", Message: "An unexpected error occurred", Action: "Please try again"}
	}
}
