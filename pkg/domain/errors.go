package domain

import "fmt"

// ValidationError reports malformed input: out-of-bounds dimensions, an
// over-long name, a disallowed sample type, or a bad coordinate format
// surfaced at the store boundary.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DuplicateError reports a unique-constraint violation on an identifier
// within its parent scope.
type DuplicateError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports an occupancy collision, such as a well already
// holding a live sample at commit time.
type ConflictError struct {
	Entity  EntityType
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}
