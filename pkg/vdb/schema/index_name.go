// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"unicode"
)

const (
	maxIndexNameBytes = 255
	// forbidden anywhere in an index name
	invalidIndexNameChars = `\/*?"<>|, #:`
)

// ValidateIndexName checks the name follows the engine index naming rules,
// so a bad name is reported as a validation error instead of an engine
// failure.
func ValidateIndexName(name string) error {
	return newValidationError(validateIndexName("index_name", name))
}

func validateIndexName(field, name string) []FieldError {
	fail := func(msg string) []FieldError {
		return []FieldError{{Field: field, Message: msg}}
	}

	switch {
	case name == "":
		return fail("must not be empty")
	case name == "." || name == "..":
		return fail("must not be '.' or '..'")
	case len(name) > maxIndexNameBytes:
		return fail("must be at most 255 bytes long")
	case strings.ContainsAny(name[:1], "-_+"):
		return fail("must not start with '-', '_' or '+'")
	case strings.ContainsAny(name, invalidIndexNameChars):
		return fail(`must not contain spaces or any of \ / * ? " < > | , # :`)
	case strings.IndexFunc(name, unicode.IsUpper) >= 0:
		return fail("must be lowercase")
	}

	return nil
}
