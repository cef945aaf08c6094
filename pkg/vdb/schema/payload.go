// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// payloadChecker walks a raw JSON payload and records every field that does
// not have the expected JSON type. It runs before typed decoding so the
// caller gets the path of each offending value instead of the first decoder
// error.
type payloadChecker struct {
	errs []FieldError
}

func (c *payloadChecker) fail(field, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *payloadChecker) object(field string, value gjson.Result) bool {
	if !value.Exists() {
		c.fail(field, "required field missing")
		return false
	}
	if !value.IsObject() {
		c.fail(field, "expected object, got %s", jsonType(value))
		return false
	}
	return true
}

func (c *payloadChecker) requiredString(parent gjson.Result, prefix, key string) {
	field := join(prefix, key)
	value := parent.Get(key)
	if !value.Exists() {
		c.fail(field, "required field missing")
		return
	}
	c.string(field, value)
}

func (c *payloadChecker) optionalString(parent gjson.Result, prefix, key string) {
	value := parent.Get(key)
	if !value.Exists() || value.Type == gjson.Null {
		return
	}
	c.string(join(prefix, key), value)
}

func (c *payloadChecker) string(field string, value gjson.Result) {
	if value.Type != gjson.String {
		c.fail(field, "expected string, got %s", jsonType(value))
	}
}

// vector checks the value is a non-empty array of numbers that fit in a
// float32.
func (c *payloadChecker) vector(parent gjson.Result, prefix, key string) {
	field := join(prefix, key)
	value := parent.Get(key)
	if !value.Exists() {
		c.fail(field, "required field missing")
		return
	}
	if !value.IsArray() {
		c.fail(field, "expected array of numbers, got %s", jsonType(value))
		return
	}

	elems := value.Array()
	if len(elems) == 0 {
		c.fail(field, "must not be empty")
		return
	}
	for i, elem := range elems {
		elemField := join(field, strconv.Itoa(i))
		if elem.Type != gjson.Number {
			c.fail(elemField, "expected number, got %s", jsonType(elem))
			continue
		}
		if math.Abs(elem.Float()) > math.MaxFloat32 {
			c.fail(elemField, "value %s out of float32 range", elem.Raw)
		}
	}
}

func jsonType(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		if value.IsArray() {
			return "array"
		}
		return "object"
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
