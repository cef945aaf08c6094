// SPDX-License-Identifier: Apache-2.0

package searchstore

// Mapper translates engine agnostic field and query descriptions into the
// dialect of one search engine.
type Mapper interface {
	GetDefaultIndexSettings() map[string]any
	FieldMapping(*Field) (map[string]any, error)
	KNNQuery(*KNNRequest) *QueryBody
}

type Field struct {
	SearchType Type
	Metadata   Metadata
}

type Metadata struct {
	VectorDimension int
	// Analyzer only applies to TextType fields. Empty means the engine
	// default.
	Analyzer string
}

type Type uint

const (
	KeywordType Type = iota
	TextType
	VectorType
)

func (t Type) String() string {
	switch t {
	case KeywordType:
		return "keyword"
	case TextType:
		return "text"
	case VectorType:
		return "vector"
	default:
		return "unknown"
	}
}

type KNNRequest struct {
	Field          string
	Vector         []float32
	K              int
	NumCandidates  int
	SourceIncludes []string
}
