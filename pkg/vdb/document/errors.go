// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// BulkItemError is the outcome of one rejected document of a bulk request.
// It never aborts the other documents of the request.
type BulkItemError struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Reason string `json:"reason"`
}

func (e BulkItemError) Error() string {
	return fmt.Sprintf("document %s: [%d] %s", e.ID, e.Status, e.Reason)
}

type InsertError struct {
	Index string
	ID    string
	Cause error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("inserting document %s into %s: %v", e.ID, e.Index, e.Cause)
}

func (e *InsertError) Unwrap() error {
	return e.Cause
}

// SearchExecutionError is returned when the engine rejects or fails a
// search, e.g. when the query vector length does not match the indexed
// vectors.
type SearchExecutionError struct {
	Index string
	Cause error
}

func (e *SearchExecutionError) Error() string {
	return fmt.Sprintf("searching index %s: %v", e.Index, e.Cause)
}

func (e *SearchExecutionError) Unwrap() error {
	return e.Cause
}

// itemErrorReason flattens the engine error of a bulk item
// ({"type": ..., "reason": ...}) into one line.
func itemErrorReason(raw []byte) string {
	if len(raw) == 0 {
		return "unknown error"
	}
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}

	engineErr := gjson.ParseBytes(raw)
	if engineErr.Type == gjson.String {
		return engineErr.String()
	}

	errType := engineErr.Get("type").String()
	reason := engineErr.Get("reason").String()
	if causedBy := engineErr.Get("caused_by.reason"); causedBy.Exists() {
		reason = fmt.Sprintf("%s (caused by: %s)", reason, causedBy.String())
	}

	switch {
	case errType == "" && reason == "":
		return engineErr.Raw
	case errType == "":
		return reason
	default:
		return errType + ": " + reason
	}
}
