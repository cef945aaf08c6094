// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xataio/vdbgateway/internal/searchstore"
	"github.com/xataio/vdbgateway/pkg/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a search engine client with a span per call and counters for
// the bulk items and searches it handles.
type Client struct {
	inner   searchstore.Client
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *clientMetrics
}

type clientMetrics struct {
	bulkItems      metric.Int64Counter
	bulkItemErrors metric.Int64Counter
	searches       metric.Int64Counter
}

// NewClient returns the client on input unchanged when instrumentation is
// disabled.
func NewClient(inner searchstore.Client, instrumentation *otel.Instrumentation) (searchstore.Client, error) {
	if !instrumentation.IsEnabled() {
		return inner, nil
	}

	c := &Client{
		inner:   inner,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &clientMetrics{},
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("error initialising search client metrics: %w", err)
	}

	return c, nil
}

func (c *Client) Ping(ctx context.Context) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.Ping")
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.Ping(ctx)
}

func (c *Client) Count(ctx context.Context, index string) (count int, err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.Count", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.Count(ctx, index)
}

func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]any) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.CreateIndex", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.CreateIndex(ctx, index, body)
}

func (c *Client) DeleteIndex(ctx context.Context, index []string) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.DeleteIndex", trace.WithAttributes(
		attribute.StringSlice("indices", index),
	))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.DeleteIndex(ctx, index)
}

func (c *Client) GetIndexMappings(ctx context.Context, index string) (mappings *searchstore.Mappings, err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.GetIndexMappings", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.GetIndexMappings(ctx, index)
}

func (c *Client) IndexWithID(ctx context.Context, req *searchstore.IndexWithIDRequest) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.IndexWithID", withIndex(req.Index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.IndexWithID(ctx, req)
}

func (c *Client) IndexExists(ctx context.Context, index string) (exists bool, err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.IndexExists", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.IndexExists(ctx, index)
}

func (c *Client) RefreshIndex(ctx context.Context, index string) (err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.RefreshIndex", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	return c.inner.RefreshIndex(ctx, index)
}

func (c *Client) Search(ctx context.Context, req *searchstore.SearchRequest) (resp *searchstore.SearchResponse, err error) {
	index := ""
	if req.Index != nil {
		index = *req.Index
	}
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.Search", withIndex(index))
	defer func() { otel.CloseSpan(span, err) }()

	resp, err = c.inner.Search(ctx, req)
	otel.AddCount(ctx, c.metrics.searches, 1,
		attribute.String("index", index),
		attribute.Bool("error", err != nil))
	return resp, err
}

func (c *Client) SendBulkRequest(ctx context.Context, items []searchstore.BulkItem) (failed []searchstore.BulkItem, err error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "searchstore.SendBulkRequest", trace.WithAttributes(
		attribute.Int("itemCount", len(items)),
	))
	defer func() { otel.CloseSpan(span, err) }()

	failed, err = c.inner.SendBulkRequest(ctx, items)
	otel.AddCount(ctx, c.metrics.bulkItems, int64(len(items)))
	for _, item := range failed {
		otel.AddCount(ctx, c.metrics.bulkItemErrors, 1, attribute.String("status", strconv.Itoa(item.Status)))
	}

	return failed, err
}

func (c *Client) GetMapper() searchstore.Mapper {
	return c.inner.GetMapper()
}

func (c *Client) initMetrics() error {
	if c.meter == nil {
		return nil
	}

	var err error
	c.metrics.bulkItems, err = c.meter.Int64Counter("vdbgateway.searchstore.bulk.items",
		metric.WithUnit("items"),
		metric.WithDescription("Count of documents sent in bulk requests"))
	if err != nil {
		return err
	}

	c.metrics.bulkItemErrors, err = c.meter.Int64Counter("vdbgateway.searchstore.bulk.item.errors",
		metric.WithUnit("errors"),
		metric.WithDescription("Count of bulk documents rejected by the engine, by status"))
	if err != nil {
		return err
	}

	c.metrics.searches, err = c.meter.Int64Counter("vdbgateway.searchstore.searches",
		metric.WithUnit("searches"),
		metric.WithDescription("Count of k-NN searches by index"))
	if err != nil {
		return err
	}

	return nil
}

func withIndex(index string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("index", index))
}
