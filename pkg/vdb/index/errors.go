// SPDX-License-Identifier: Apache-2.0

package index

import "fmt"

// IndexCreationError is returned when the engine refuses to create the index
// or does not acknowledge the creation.
type IndexCreationError struct {
	Index string
	Cause error
}

func (e *IndexCreationError) Error() string {
	return fmt.Sprintf("creating index %s: %v", e.Index, e.Cause)
}

func (e *IndexCreationError) Unwrap() error {
	return e.Cause
}

// RefreshError does not invalidate the writes that preceded the refresh, it
// only means they may not be visible to searches yet.
type RefreshError struct {
	Index string
	Cause error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refreshing index %s: %v", e.Index, e.Cause)
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}
