// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"

	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/index"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
	"golang.org/x/sync/errgroup"
)

type indexManager interface {
	EnsureIndex(ctx context.Context, indexName string, mapping index.Mapping) (index.EnsureResult, error)
	RefreshIndex(ctx context.Context, indexName string) error
}

type documentWriter interface {
	Insert(ctx context.Context, indexName, id string, doc *schema.Document) (document.Ack, error)
	BulkInsert(ctx context.Context, indexName string, items []schema.IngestItem) (*document.BulkResult, error)
}

// Orchestrator ingests batches of items. The items are grouped by target
// index and each group goes through index creation, bulk write and refresh
// on its own, so that a failing group does not affect the others.
type Orchestrator struct {
	indexes      indexManager
	documents    documentWriter
	logger       loglib.Logger
	groupWorkers int
	textAnalyzer string
}

type Config struct {
	// GroupWorkers bounds the number of index groups processed concurrently.
	// Defaults to 4.
	GroupWorkers int
	// TextAnalyzer is set on the text fields of the indices created.
	// Defaults to the standard analyzer.
	TextAnalyzer string
}

type Option func(*Orchestrator)

// Group is the ordered set of items of a batch that target the same index.
type Group struct {
	Index string
	Items []schema.IngestItem
}

const defaultGroupWorkers = 4

func New(indexes indexManager, documents documentWriter, cfg *Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		indexes:      indexes,
		documents:    documents,
		logger:       loglib.NewNoopLogger(),
		groupWorkers: defaultGroupWorkers,
		textAnalyzer: index.DefaultTextAnalyzer,
	}
	if cfg != nil {
		if cfg.GroupWorkers > 0 {
			o.groupWorkers = cfg.GroupWorkers
		}
		if cfg.TextAnalyzer != "" {
			o.textAnalyzer = cfg.TextAnalyzer
		}
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithLogger(l loglib.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = loglib.NewModuleLogger(l, "ingest")
	}
}

// Ingest validates the batch and writes it. The returned error is only set
// for an invalid batch, in which case nothing was sent to the engine. Group
// and item failures are reported in the result.
//
// Once ctx is cancelled no new step is started, but the engine calls
// already issued are left to complete.
func (o *Orchestrator) Ingest(ctx context.Context, batch *schema.IngestBatch) (*Result, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	groups := Partition(batch.Items)
	results := make([]GroupResult, len(groups))

	eg := &errgroup.Group{}
	eg.SetLimit(o.groupWorkers)
	for i, group := range groups {
		eg.Go(func() error {
			results[i] = o.ingestGroup(ctx, group)
			return nil
		})
	}
	// group failures are part of the results
	_ = eg.Wait()

	result := newResult(results)
	o.logger.Info("batch ingested", loglib.Fields{
		"status":   string(result.Status),
		"groups":   len(groups),
		"accepted": result.AcceptedCount,
		"total":    result.TotalCount,
	})

	return result, nil
}

func (o *Orchestrator) ingestGroup(ctx context.Context, group Group) GroupResult {
	result := GroupResult{Index: group.Index, Total: len(group.Items)}
	logger := o.logger.WithFields(loglib.Fields{loglib.IndexField: group.Index})
	callCtx := context.WithoutCancel(ctx)

	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("%w before index check: %w", ErrAborted, err)
		return result
	}

	mapping := index.DeriveMapping(&group.Items[0], o.textAnalyzer)
	ensured, err := o.indexes.EnsureIndex(callCtx, group.Index, mapping)
	if err != nil {
		logger.Error(err, "ensuring index")
		result.Err = err
		return result
	}
	result.Created = ensured.Created

	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("%w before bulk insert: %w", ErrAborted, err)
		return result
	}

	bulk, err := o.documents.BulkInsert(callCtx, group.Index, group.Items)
	if err != nil {
		logger.Error(err, "bulk inserting documents")
		result.Err = err
		return result
	}
	result.Accepted = bulk.Succeeded
	result.Failed = bulk.Failed

	if bulk.Succeeded == 0 {
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Warning = fmt.Errorf("index %s: refresh skipped, %w: %w", group.Index, ErrAborted, err)
		return result
	}

	if err := o.indexes.RefreshIndex(callCtx, group.Index); err != nil {
		logger.Warn(err, "refreshing index, documents may not be searchable yet")
		result.Warning = err
	}

	return result
}

// Insert writes a single item under its id, creating the index first when
// needed. Unlike Ingest every failure is returned as an error, except for the
// refresh failure which is only logged.
func (o *Orchestrator) Insert(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
	if err := item.Validate(); err != nil {
		return document.Ack{}, err
	}

	logger := o.logger.WithFields(loglib.Fields{
		loglib.IndexField:    item.IndexName,
		loglib.DocumentField: item.ID,
	})

	if _, err := o.indexes.EnsureIndex(ctx, item.IndexName, index.DeriveMapping(item, o.textAnalyzer)); err != nil {
		logger.Error(err, "ensuring index")
		return document.Ack{}, err
	}

	ack, err := o.documents.Insert(ctx, item.IndexName, item.ID, item.Document())
	if err != nil {
		logger.Error(err, "inserting document")
		return document.Ack{}, err
	}

	if err := o.indexes.RefreshIndex(ctx, item.IndexName); err != nil {
		logger.Warn(err, "refreshing index, document may not be searchable yet")
	}

	return ack, nil
}

// Partition groups the items by index, keeping the groups in the order their
// index first appears and the items in batch order.
func Partition(items []schema.IngestItem) []Group {
	groups := []Group{}
	positions := map[string]int{}
	for _, item := range items {
		pos, found := positions[item.IndexName]
		if !found {
			pos = len(groups)
			positions[item.IndexName] = pos
			groups = append(groups, Group{Index: item.IndexName})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}
