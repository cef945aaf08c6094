// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff runs an operation until it succeeds, fails permanently or the
// retry policy gives up.
type Backoff interface {
	RetryNotify(Operation, Notify) error
	Retry(Operation) error
}

type (
	Operation func() error
	Notify    func(error, time.Duration)
)

// Config selects the retry policy. Constant wins when both are set, and no
// retries happen when neither is.
type Config struct {
	Exponential *ExponentialConfig
	Constant    *ConstantConfig
}

type ExponentialConfig struct {
	// InitialInterval is the first wait. Defaults to 500ms.
	InitialInterval time.Duration
	// MaxInterval caps each wait. Defaults to 60s.
	MaxInterval time.Duration
	// MaxRetries bounds the attempts after the first one. When zero the
	// retries stop after 15 minutes.
	MaxRetries uint
}

type ConstantConfig struct {
	Interval time.Duration
	// MaxRetries bounds the attempts after the first one. When zero the
	// retries stop after 15 minutes.
	MaxRetries uint
}

// maxElapsedTime stops the retries of a policy without max retries.
const maxElapsedTime = 15 * time.Minute

// ErrPermanent stops the retries. Operations return it, or wrap it, for
// errors that another attempt cannot fix.
var ErrPermanent = errors.New("permanent error, do not retry")

// Provider builds a Backoff bound to the lifetime of the context on input.
type Provider func(ctx context.Context) Backoff

type policyBackoff struct {
	policy backoff.BackOff
}

// NewProvider returns a backoff provider based on the config on input. If no
// valid input is provided, a no retry backoff provider is returned instead.
func NewProvider(cfg *Config) Provider {
	if cfg == nil {
		cfg = &Config{}
	}
	return func(ctx context.Context) Backoff {
		return &policyBackoff{
			policy: backoff.WithContext(cfg.newPolicy(), ctx),
		}
	}
}

func (c *Config) newPolicy() backoff.BackOff {
	switch {
	case c.Constant != nil:
		// an exponential backoff with no growth nor jitter, so the elapsed
		// time cap applies
		constant := backoff.NewExponentialBackOff()
		constant.InitialInterval = c.Constant.Interval
		constant.MaxInterval = c.Constant.Interval
		constant.Multiplier = 1
		constant.RandomizationFactor = 0
		constant.MaxElapsedTime = maxElapsedTime
		if c.Constant.MaxRetries > 0 {
			constant.MaxElapsedTime = 0
		}
		return withMaxRetries(constant, c.Constant.MaxRetries)
	case c.Exponential != nil:
		exp := backoff.NewExponentialBackOff()
		exp.MaxElapsedTime = maxElapsedTime
		if c.Exponential.InitialInterval > 0 {
			exp.InitialInterval = c.Exponential.InitialInterval
		}
		if c.Exponential.MaxInterval > 0 {
			exp.MaxInterval = c.Exponential.MaxInterval
		}
		if c.Exponential.MaxRetries > 0 {
			exp.MaxElapsedTime = 0
		}
		return withMaxRetries(exp, c.Exponential.MaxRetries)
	default:
		return &backoff.StopBackOff{}
	}
}

func withMaxRetries(b backoff.BackOff, maxRetries uint) backoff.BackOff {
	if maxRetries == 0 {
		return b
	}
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}

func (b *policyBackoff) Retry(op Operation) error {
	return b.RetryNotify(op, nil)
}

// RetryNotify calls notify before each wait. The error returned is the last
// one of the operation, or the context error when the context ended first.
func (b *policyBackoff) RetryNotify(op Operation, notify Notify) error {
	boOp := func() error {
		err := op()
		if errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(boOp, b.policy, backoff.Notify(notify))
}
