package orders

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrInUse is returned when deleting a row that orders still reference.
	ErrInUse = errors.New("referenced by orders")
)

type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects field level problems with a request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Path+": "+fe.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(path, message string) {
	e.Errors = append(e.Errors, FieldError{Path: path, Message: message})
}

// Err returns e when at least one field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func Invalid(path, message string) error {
	return &ValidationError{Errors: []FieldError{{Path: path, Message: message}}}
}
