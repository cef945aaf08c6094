// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/xataio/vdbgateway/internal/json"
)

type SearchVector struct {
	Vector []float32 `json:"search_vector"`
}

// ParseSearchVector decodes and validates a search payload
// ({"search_vector": [...]}).
func ParseSearchVector(payload []byte) (*SearchVector, error) {
	if !gjson.ValidBytes(payload) {
		return nil, newValidationError([]FieldError{{Message: "payload is not valid JSON"}})
	}

	root := gjson.ParseBytes(payload)
	checker := &payloadChecker{}
	if checker.object("", root) {
		checker.vector(root, "", "search_vector")
	}
	if err := newValidationError(checker.errs); err != nil {
		return nil, err
	}

	sv := &SearchVector{}
	if err := json.Unmarshal(payload, sv); err != nil {
		return nil, newValidationError([]FieldError{{Message: fmt.Sprintf("decoding payload: %v", err)}})
	}

	if err := sv.Validate(); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SearchVector) Validate() error {
	return newValidationError(validateVector("search_vector", s.Vector))
}
