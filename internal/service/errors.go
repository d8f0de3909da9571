package service

import (
	"errors"

	"github.com/parisxmas/checkindesk/internal/validation"
)

// Messages shown to the guest or operator.
const (
	MsgSaved         = "Submission saved successfully!"
	MsgSaveFailed    = "Failed to save. Storage error."
	MsgImportOK      = "Import successful"
	MsgImportFailed  = "Import failed: "
	MsgConfirmDelete = "Delete this record?"
	MsgConfirmClear  = "Clear ALL submissions?"
	MsgNoData        = "No data found."
)

var (
	ErrSaveFailed    = errors.New("save failed: storage error")
	ErrNotFound      = errors.New("submission not found")
	ErrInvalidImport = errors.New("invalid import")
	ErrNotArray      = errors.New("Invalid format - expected an array")
)

// ValidationError carries the field report of a rejected submission.
type ValidationError struct {
	Report validation.Report
}

// Error is the message of the first failing field.
func (e *ValidationError) Error() string {
	if first, ok := e.Report.First(); ok {
		return first.Message
	}
	return "validation failed"
}

// ImportError wraps anything that makes an import file unusable. It
// matches ErrInvalidImport under errors.Is.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string { return e.Err.Error() }

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) Is(target error) bool { return target == ErrInvalidImport }
