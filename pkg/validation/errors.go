package validation

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedInput is the sentinel for structurally invalid input.
var ErrMalformedInput = eris.New("malformed input")

// MalformedInputError reports the first structural problem found in an
// input. It stops a calculation before any pipeline stage runs.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// Violation is a broken business or regulatory rule on one field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Violations is an ordered list of rule violations.
type Violations []Violation

// Messages renders each violation as "field: message".
func (vs Violations) Messages() []string {
	messages := make([]string, 0, len(vs))
	for _, v := range vs {
		messages = append(messages, v.String())
	}
	return messages
}

// HasField reports whether any violation targets field.
func (vs Violations) HasField(field string) bool {
	for _, v := range vs {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (vs Violations) String() string {
	return strings.Join(vs.Messages(), "; ")
}
