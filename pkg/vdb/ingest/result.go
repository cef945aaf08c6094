// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"errors"
	"fmt"

	"github.com/xataio/vdbgateway/pkg/vdb/document"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// GroupResult is the outcome of the items of a batch that target the same
// index.
type GroupResult struct {
	Index    string
	Total    int
	Created  bool
	Accepted int
	Failed   []document.BulkItemError
	// Err is set when the group failed as a whole (index creation, bulk
	// request or cancellation). None of its items were accepted then.
	Err error
	// Warning is set when the writes went through but may not be visible to
	// searches yet.
	Warning error
}

type Result struct {
	Status        Status
	AcceptedCount int
	TotalCount    int
	Groups        []GroupResult
}

var ErrAborted = errors.New("ingestion aborted")

func newResult(groups []GroupResult) *Result {
	r := &Result{Groups: groups}
	for _, g := range groups {
		r.AcceptedCount += g.Accepted
		r.TotalCount += g.Total
	}

	switch {
	case r.AcceptedCount == r.TotalCount:
		r.Status = StatusSuccess
	case r.AcceptedCount == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}

	return r
}

// Message summarises the result in one line.
func (r *Result) Message() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("%d items ingested successfully.", r.AcceptedCount)
	case StatusPartial:
		return fmt.Sprintf("%d of %d items ingested.", r.AcceptedCount, r.TotalCount)
	default:
		return fmt.Sprintf("none of the %d items could be ingested.", r.TotalCount)
	}
}

// GroupErrors returns the error message of each failed group, by index.
func (r *Result) GroupErrors() map[string]string {
	errs := map[string]string{}
	for _, g := range r.Groups {
		if g.Err != nil {
			errs[g.Index] = g.Err.Error()
		}
	}
	return errs
}

// FailedItems returns the rejected items of all the groups.
func (r *Result) FailedItems() []document.BulkItemError {
	failed := []document.BulkItemError{}
	for _, g := range r.Groups {
		failed = append(failed, g.Failed...)
	}
	return failed
}

func (r *Result) Warnings() []string {
	warnings := []string{}
	for _, g := range r.Groups {
		if g.Warning != nil {
			warnings = append(warnings, g.Warning.Error())
		}
	}
	return warnings
}

// Err aggregates the group failures and rejected items into one error. It
// is nil when every item was accepted.
func (r *Result) Err() error {
	errs := []error{}
	for _, g := range r.Groups {
		if g.Err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", g.Index, g.Err))
		}
		for _, itemErr := range g.Failed {
			errs = append(errs, fmt.Errorf("index %s: %w", g.Index, itemErr))
		}
	}
	return errors.Join(errs...)
}
