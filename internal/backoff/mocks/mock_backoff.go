// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"errors"

	"github.com/xataio/vdbgateway/internal/backoff"
)

// Backoff runs the operation up to MaxAttempts times (once if unset),
// notifying between attempts, without sleeping.
type Backoff struct {
	MaxAttempts int
}

func (m *Backoff) RetryNotify(op backoff.Operation, notify backoff.Notify) error {
	attempts := max(m.MaxAttempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if err == nil || errors.Is(err, backoff.ErrPermanent) {
			return err
		}
		if notify != nil && i < attempts-1 {
			notify(err, 0)
		}
	}
	return err
}

func (m *Backoff) Retry(op backoff.Operation) error {
	return m.RetryNotify(op, nil)
}
