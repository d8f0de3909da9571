package oxidb

import (
	"errors"
	"fmt"
)

// Error is returned when the server answers with an error response.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s", e.Msg)
}

// NotFoundError is returned when the addressed object or bucket is absent.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("oxidb: not found: %s", e.Msg)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
