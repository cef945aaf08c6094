// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strings"
)

// FieldError locates one validation failure in an inbound payload. Field is
// a dotted path, with array positions as path segments (items.2.id).
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationError is returned for malformed input. It is raised before any
// call to the search engine.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func newValidationError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ResponseShapeError means the engine answered, but one of its hits does not
// follow the expected contract.
type ResponseShapeError struct {
	Hit    int
	Field  string
	Reason string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("unexpected search response shape: hit %d: %s: %s", e.Hit, e.Field, e.Reason)
}
