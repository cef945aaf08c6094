// SPDX-License-Identifier: Apache-2.0

package json

import (
	"io"

	json "github.com/bytedance/sonic"
)

func Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// NewEncoder returns a streaming encoder writing one JSON value per Encode
// call, each followed by a newline. The bulk API relies on that framing.
func NewEncoder(w io.Writer) json.Encoder {
	return json.ConfigDefault.NewEncoder(w)
}

func NewDecoder(r io.Reader) json.Decoder {
	return json.ConfigDefault.NewDecoder(r)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}
