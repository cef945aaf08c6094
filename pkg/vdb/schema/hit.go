// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	jsonlib "github.com/xataio/vdbgateway/internal/json"
)

type SearchHit struct {
	SourceIndex    string   `json:"source_index"`
	DocumentID     string   `json:"document_id"`
	RelevanceScore float64  `json:"relevance_score"`
	Document       Document `json:"document"`
}

// SearchResult keeps the hits in the order the engine ranked them.
type SearchResult struct {
	Hits []SearchHit `json:"hits"`
}

type hitField struct {
	from     string
	to       string
	valid    func(gjson.Result) bool
	expected string
}

// hitFields is the rename table between the engine hit record and
// SearchHit. Keys of the engine record not listed here are dropped.
var hitFields = []hitField{
	{from: "_index", to: "source_index", valid: isString, expected: "string"},
	{from: "_id", to: "document_id", valid: isString, expected: "string"},
	{from: "_score", to: "relevance_score", valid: isNumber, expected: "number"},
	{from: "_source", to: "document", valid: gjson.Result.IsObject, expected: "object"},
}

// DecodeHits converts raw engine hits into a SearchResult.
func DecodeHits(raw []json.RawMessage) (*SearchResult, error) {
	result := &SearchResult{Hits: make([]SearchHit, 0, len(raw))}
	for i, rawHit := range raw {
		hit, err := decodeHit(i, rawHit)
		if err != nil {
			return nil, err
		}
		result.Hits = append(result.Hits, *hit)
	}
	return result, nil
}

func decodeHit(pos int, raw []byte) (*SearchHit, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ResponseShapeError{Hit: pos, Reason: "hit is not valid JSON"}
	}
	record := gjson.ParseBytes(raw)
	if !record.IsObject() {
		return nil, &ResponseShapeError{Hit: pos, Reason: "expected object, got " + jsonType(record)}
	}

	renamed := []byte(`{}`)
	for _, f := range hitFields {
		value := record.Get(f.from)
		if !value.Exists() {
			return nil, &ResponseShapeError{Hit: pos, Field: f.from, Reason: "required field missing"}
		}
		if !f.valid(value) {
			return nil, &ResponseShapeError{Hit: pos, Field: f.from, Reason: "expected " + f.expected + ", got " + jsonType(value)}
		}

		var err error
		if renamed, err = sjson.SetRawBytes(renamed, f.to, []byte(value.Raw)); err != nil {
			return nil, &ResponseShapeError{Hit: pos, Field: f.from, Reason: err.Error()}
		}
	}

	if id := record.Get("_source.id"); id.Exists() && id.Type != gjson.String {
		return nil, &ResponseShapeError{Hit: pos, Field: "_source.id", Reason: "expected string, got " + jsonType(id)}
	}

	hit := &SearchHit{}
	if err := jsonlib.Unmarshal(renamed, hit); err != nil {
		return nil, &ResponseShapeError{Hit: pos, Field: "_source", Reason: err.Error()}
	}

	return hit, nil
}

func isString(r gjson.Result) bool { return r.Type == gjson.String }
func isNumber(r gjson.Result) bool { return r.Type == gjson.Number }
