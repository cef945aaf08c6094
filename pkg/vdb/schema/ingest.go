// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/xataio/vdbgateway/internal/json"
)

// MaxIDBytes is the engine limit for a document id.
const MaxIDBytes = 512

// Listing holds the optional descriptive fields of a property listing. They
// are stored along with the embeddings and returned in search hits.
type Listing struct {
	Headline     string `json:"headline,omitempty"`
	CombinedText string `json:"combined_text,omitempty"`
	Property     string `json:"property,omitempty"`
	Location     string `json:"location,omitempty"`
	Image        string `json:"image,omitempty"`
}

// Document is the persisted shape of an ingested item.
type Document struct {
	ID             string    `json:"id"`
	TextEmbedding  []float32 `json:"text_embedding,omitempty"`
	ImageEmbedding []float32 `json:"image_embedding,omitempty"`
	Listing
}

type IngestItem struct {
	ID             string    `json:"id"`
	TextEmbedding  []float32 `json:"text_embedding"`
	ImageEmbedding []float32 `json:"image_embedding"`
	IndexName      string    `json:"index_name"`
	Listing
}

type IngestBatch struct {
	Items []IngestItem `json:"items"`
}

var listingFields = []string{"headline", "combined_text", "property", "location", "image"}

// Document returns the item as it is stored, without its routing index.
func (i *IngestItem) Document() *Document {
	return &Document{
		ID:             i.ID,
		TextEmbedding:  i.TextEmbedding,
		ImageEmbedding: i.ImageEmbedding,
		Listing:        i.Listing,
	}
}

// ParseIngestBatch decodes and validates an ingestion batch payload
// ({"items": [...]}).
func ParseIngestBatch(payload []byte) (*IngestBatch, error) {
	if !gjson.ValidBytes(payload) {
		return nil, newValidationError([]FieldError{{Message: "payload is not valid JSON"}})
	}

	root := gjson.ParseBytes(payload)
	checker := &payloadChecker{}
	if checker.object("", root) {
		items := root.Get("items")
		switch {
		case !items.Exists():
			checker.fail("items", "required field missing")
		case !items.IsArray():
			checker.fail("items", "expected array, got %s", jsonType(items))
		default:
			for i, item := range items.Array() {
				checkItemPayload(checker, "items."+strconv.Itoa(i), item)
			}
		}
	}
	if err := newValidationError(checker.errs); err != nil {
		return nil, err
	}

	batch := &IngestBatch{}
	if err := json.Unmarshal(payload, batch); err != nil {
		return nil, newValidationError([]FieldError{{Message: fmt.Sprintf("decoding payload: %v", err)}})
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	return batch, nil
}

// ParseIngestItem decodes and validates a single item payload.
func ParseIngestItem(payload []byte) (*IngestItem, error) {
	if !gjson.ValidBytes(payload) {
		return nil, newValidationError([]FieldError{{Message: "payload is not valid JSON"}})
	}

	checker := &payloadChecker{}
	checkItemPayload(checker, "", gjson.ParseBytes(payload))
	if err := newValidationError(checker.errs); err != nil {
		return nil, err
	}

	item := &IngestItem{}
	if err := json.Unmarshal(payload, item); err != nil {
		return nil, newValidationError([]FieldError{{Message: fmt.Sprintf("decoding payload: %v", err)}})
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

func checkItemPayload(checker *payloadChecker, prefix string, item gjson.Result) {
	if !checker.object(prefix, item) {
		return
	}
	checker.requiredString(item, prefix, "id")
	checker.vector(item, prefix, "text_embedding")
	checker.vector(item, prefix, "image_embedding")
	checker.requiredString(item, prefix, "index_name")
	for _, field := range listingFields {
		checker.optionalString(item, prefix, field)
	}
}

// Validate checks the batch is not empty, every item is valid, and the items
// sharing an index agree on both embedding dimensions.
func (b *IngestBatch) Validate() error {
	if len(b.Items) == 0 {
		return newValidationError([]FieldError{{Field: "items", Message: "must contain at least one item"}})
	}

	type dims struct {
		text, image int
		first       int
	}

	errs := []FieldError{}
	indexDims := map[string]dims{}
	for i := range b.Items {
		item := &b.Items[i]
		prefix := "items." + strconv.Itoa(i)
		itemErrs := item.validate(prefix)
		if len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
			continue
		}

		d, found := indexDims[item.IndexName]
		if !found {
			indexDims[item.IndexName] = dims{text: len(item.TextEmbedding), image: len(item.ImageEmbedding), first: i}
			continue
		}
		if len(item.TextEmbedding) != d.text {
			errs = append(errs, dimensionMismatch(prefix+".text_embedding", len(item.TextEmbedding), d.text, d.first, item.IndexName))
		}
		if len(item.ImageEmbedding) != d.image {
			errs = append(errs, dimensionMismatch(prefix+".image_embedding", len(item.ImageEmbedding), d.image, d.first, item.IndexName))
		}
	}

	return newValidationError(errs)
}

// Validate checks a single item on its own.
func (i *IngestItem) Validate() error {
	return newValidationError(i.validate(""))
}

func (i *IngestItem) validate(prefix string) []FieldError {
	errs := []FieldError{}
	switch {
	case i.ID == "":
		errs = append(errs, FieldError{Field: join(prefix, "id"), Message: "must not be empty"})
	case len(i.ID) > MaxIDBytes:
		errs = append(errs, FieldError{Field: join(prefix, "id"), Message: fmt.Sprintf("must be at most %d bytes long", MaxIDBytes)})
	}
	errs = append(errs, validateVector(join(prefix, "text_embedding"), i.TextEmbedding)...)
	errs = append(errs, validateVector(join(prefix, "image_embedding"), i.ImageEmbedding)...)
	errs = append(errs, validateIndexName(join(prefix, "index_name"), i.IndexName)...)
	return errs
}

// Dimensions returns the text and image embedding lengths.
func (i *IngestItem) Dimensions() (text, image int) {
	return len(i.TextEmbedding), len(i.ImageEmbedding)
}

func validateVector(field string, vector []float32) []FieldError {
	if len(vector) == 0 {
		return []FieldError{{Field: field, Message: "must not be empty"}}
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return []FieldError{{Field: join(field, strconv.Itoa(i)), Message: "must be a finite number"}}
		}
	}
	return nil
}

func dimensionMismatch(field string, got, want, first int, index string) FieldError {
	return FieldError{
		Field:   field,
		Message: fmt.Sprintf("dimension %d differs from dimension %d of items.%d for index %q", got, want, first, index),
	}
}
