package leads

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrLeadNotFound is returned when an id does not exist or belongs to another
// user. The two cases are deliberately indistinguishable so that ownership
// checks never confirm a record's existence.
var ErrLeadNotFound = errors.New("lead not found")

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) add(field, message string) {
	e.Fields[field] = message
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}
