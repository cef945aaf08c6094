// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xataio/vdbgateway/internal/backoff"
	"github.com/xataio/vdbgateway/internal/json"
	"github.com/xataio/vdbgateway/internal/searchstore"
	loglib "github.com/xataio/vdbgateway/pkg/log"
)

// Client applies a retry strategy to the engine calls that fail with a
// searchstore.RetryableError. Any other error is returned straight away.
// With the default configuration nothing is retried.
type Client struct {
	inner           searchstore.Client
	logger          loglib.Logger
	backoffProvider backoff.Provider
}

type Option func(*Client)

var errPartialBulkSend = errors.New("some bulk items failed with a retriable status")

// New wraps the client on input. A nil or empty backoff config disables
// retries.
func New(inner searchstore.Client, cfg *backoff.Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = &backoff.Config{}
	}

	c := &Client{
		inner:           inner,
		logger:          loglib.NewNoopLogger(),
		backoffProvider: backoff.NewProvider(cfg),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithLogger(l loglib.Logger) Option {
	return func(c *Client) {
		c.logger = loglib.NewModuleLogger(l, "searchstore_retrier")
	}
}

func (c *Client) GetMapper() searchstore.Mapper {
	return c.inner.GetMapper()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.retry(ctx, "ping", func() error {
		return c.inner.Ping(ctx)
	})
}

func (c *Client) Count(ctx context.Context, index string) (count int, err error) {
	err = c.retry(ctx, "count", func() error {
		count, err = c.inner.Count(ctx, index)
		return err
	})
	return count, err
}

func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]any) error {
	return c.retry(ctx, "create_index", func() error {
		return c.inner.CreateIndex(ctx, index, body)
	})
}

func (c *Client) DeleteIndex(ctx context.Context, index []string) error {
	return c.retry(ctx, "delete_index", func() error {
		return c.inner.DeleteIndex(ctx, index)
	})
}

func (c *Client) GetIndexMappings(ctx context.Context, index string) (mappings *searchstore.Mappings, err error) {
	err = c.retry(ctx, "get_index_mappings", func() error {
		mappings, err = c.inner.GetIndexMappings(ctx, index)
		return err
	})
	return mappings, err
}

func (c *Client) IndexWithID(ctx context.Context, req *searchstore.IndexWithIDRequest) error {
	return c.retry(ctx, "index_with_id", func() error {
		return c.inner.IndexWithID(ctx, req)
	})
}

func (c *Client) IndexExists(ctx context.Context, index string) (exists bool, err error) {
	err = c.retry(ctx, "index_exists", func() error {
		exists, err = c.inner.IndexExists(ctx, index)
		return err
	})
	return exists, err
}

func (c *Client) RefreshIndex(ctx context.Context, index string) error {
	return c.retry(ctx, "refresh_index", func() error {
		return c.inner.RefreshIndex(ctx, index)
	})
}

func (c *Client) Search(ctx context.Context, req *searchstore.SearchRequest) (resp *searchstore.SearchResponse, err error) {
	err = c.retry(ctx, "search", func() error {
		resp, err = c.inner.Search(ctx, req)
		return err
	})
	return resp, err
}

// SendBulkRequest resends only the items that failed with a retriable status.
// Items that failed with any other status are returned as they are. If a
// retry attempt fails as a whole, the items still pending are reported as
// failed with that error, since earlier attempts already wrote the others.
func (c *Client) SendBulkRequest(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error) {
	pending := items
	failed := []searchstore.BulkItem{}
	attempts := 0

	err := c.retry(ctx, "send_bulk_request", func() error {
		itemErrs, err := c.inner.SendBulkRequest(ctx, pending)
		if err != nil {
			return err
		}
		attempts++

		retriable := make([]searchstore.BulkItem, 0, len(itemErrs))
		for _, itemErr := range itemErrs {
			if isRetriableStatus(itemErr.Status) {
				retriable = append(retriable, itemErr)
				continue
			}
			failed = append(failed, itemErr)
		}
		pending = retriable
		if len(pending) == 0 {
			return nil
		}

		c.logger.Info("retrying bulk items", loglib.Fields{
			"items_sent":     len(itemErrs),
			"items_to_retry": len(pending),
		})
		return searchstore.RetryableError{Cause: errPartialBulkSend}
	})

	switch {
	case err == nil:
		return failed, nil
	case errors.Is(err, errPartialBulkSend):
		return append(failed, pending...), nil
	case attempts > 0:
		return append(failed, markFailed(pending, err)...), nil
	default:
		return nil, err
	}
}

func (c *Client) retry(ctx context.Context, operation string, op func() error) error {
	var opErr error
	numRetries := 0

	bo := c.backoffProvider(ctx)
	err := bo.RetryNotify(func() error {
		opErr = op()
		if opErr == nil {
			return nil
		}
		var retryableErr searchstore.RetryableError
		if !errors.As(opErr, &retryableErr) {
			return backoff.ErrPermanent
		}
		return opErr
	}, func(err error, d time.Duration) {
		numRetries++
		c.logger.Warn(err, "search engine call failed, retrying", loglib.Fields{
			"operation": operation,
			"retries":   numRetries,
			"backoff":   d,
		})
	})
	if err == nil {
		return nil
	}
	if opErr != nil {
		return opErr
	}
	return err
}

func isRetriableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func markFailed(items []searchstore.BulkItem, cause error) []searchstore.BulkItem {
	reason, err := json.Marshal(map[string]string{
		"type":   "retry_failed",
		"reason": cause.Error(),
	})
	if err != nil {
		reason = []byte(fmt.Sprintf("%q", cause.Error()))
	}

	for i := range items {
		if items[i].Status == 0 {
			items[i].Status = http.StatusServiceUnavailable
		}
		items[i].Error = reason
	}
	return items
}
