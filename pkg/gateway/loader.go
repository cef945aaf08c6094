// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xataio/vdbgateway/internal/progress"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type batchIngester interface {
	Ingest(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error)
}

// Loader streams a newline delimited JSON file of items through the
// ingestion orchestrator, in batches.
type Loader struct {
	ingester  batchIngester
	logger    loglib.Logger
	bar       progress.Bar
	batchSize int
}

type LoaderConfig struct {
	// BatchSize is the number of items sent per ingestion batch. Defaults to
	// 500.
	BatchSize int
}

type LoaderOption func(*Loader)

// LoadResult counts the lines of the input by outcome. Rejected lines never
// reached the engine, failed ones were refused by it.
type LoadResult struct {
	Lines    int
	Accepted int
	Rejected int
	Failed   int
	Errors   []string
}

const (
	defaultLoadBatchSize = 500
	maxLineBytes         = 64 * 1024 * 1024
)

func NewLoader(ingester batchIngester, cfg *LoaderConfig, opts ...LoaderOption) *Loader {
	l := &Loader{
		ingester:  ingester,
		logger:    loglib.NewNoopLogger(),
		batchSize: defaultLoadBatchSize,
	}
	if cfg != nil && cfg.BatchSize > 0 {
		l.batchSize = cfg.BatchSize
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func WithLoaderLogger(logger loglib.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = loglib.NewModuleLogger(logger, "loader")
	}
}

// WithProgressBar advances the bar by the size of each line read.
func WithProgressBar(bar progress.Bar) LoaderOption {
	return func(l *Loader) {
		l.bar = bar
	}
}

// Load reads the items until the end of the reader. Invalid lines and failed
// items are reported in the result, only read errors and cancellation stop
// the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	result := &LoadResult{}
	batch := &schema.IngestBatch{Items: make([]schema.IngestItem, 0, l.batchSize)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		l.advance(len(line) + 1)

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		result.Lines++

		item, err := schema.ParseIngestItem(line)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNumber, err))
			continue
		}

		batch.Items = append(batch.Items, *item)
		if len(batch.Items) == l.batchSize {
			if err := l.flush(ctx, batch, result); err != nil {
				return result, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading line %d: %w", lineNumber+1, err)
	}

	if err := l.flush(ctx, batch, result); err != nil {
		return result, err
	}

	l.logger.Info("load completed", loglib.Fields{
		"lines":    result.Lines,
		"accepted": result.Accepted,
		"rejected": result.Rejected,
		"failed":   result.Failed,
	})

	return result, nil
}

func (l *Loader) flush(ctx context.Context, batch *schema.IngestBatch, result *LoadResult) error {
	if len(batch.Items) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	size := len(batch.Items)
	ingestResult, err := l.ingester.Ingest(ctx, batch)
	batch.Items = batch.Items[:0]
	if err != nil {
		// mixed dimensions within one index make the whole batch invalid
		var validationErr *schema.ValidationError
		if errors.As(err, &validationErr) {
			result.Rejected += size
			result.Errors = append(result.Errors, err.Error())
			return nil
		}
		return err
	}

	result.Accepted += ingestResult.AcceptedCount
	result.Failed += ingestResult.TotalCount - ingestResult.AcceptedCount
	if err := ingestResult.Err(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	for _, w := range ingestResult.Warnings() {
		l.logger.Warn(errors.New(w), "batch ingested with warnings")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

func (l *Loader) advance(n int) {
	if l.bar == nil {
		return
	}
	if err := l.bar.Add(n); err != nil {
		l.logger.Debug("updating progress bar", loglib.Fields{"error": err.Error()})
	}
}
