// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeBulkItems(t *testing.T) {
	t.Parallel()

	items := []BulkItem{
		{
			Index: &BulkIndex{Index: "immo", ID: "a"},
			Doc:   map[string]any{"id": "a", "text_embedding": []float32{0.5, 1}},
		},
		{
			Index: &BulkIndex{Index: "immo", ID: "b"},
		},
	}

	buf := &bytes.Buffer{}
	err := EncodeBulkItems(buf, items)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(t, lines, 4)
	require.JSONEq(t, `{"index":{"_index":"immo","_id":"a"}}`, string(lines[0]))
	require.JSONEq(t, `{"id":"a","text_embedding":[0.5,1]}`, string(lines[1]))
	require.JSONEq(t, `{"index":{"_index":"immo","_id":"b"}}`, string(lines[2]))
	require.Equal(t, "{}", string(lines[3]))
}

func TestVerifyResponse(t *testing.T) {
	t.Parallel()

	newItems := func() []BulkItem {
		return []BulkItem{
			{Index: &BulkIndex{Index: "immo", ID: "a"}},
			{Index: &BulkIndex{Index: "immo", ID: "b"}},
		}
	}

	tests := []struct {
		name string
		body string

		wantFailed []BulkItem
		wantErr    bool
	}{
		{
			name:       "ok - no errors",
			body:       `{"errors":false,"items":[{"index":{"_id":"a","status":201}},{"index":{"_id":"b","status":201}}]}`,
			wantFailed: []BulkItem{},
		},
		{
			name: "ok - one failed item",
			body: `{"errors":true,"items":[{"index":{"_id":"a","status":201}},{"index":{"_id":"b","status":400,"error":{"type":"mapper_parsing_exception"}}}]}`,
			wantFailed: []BulkItem{
				{
					Index:  &BulkIndex{Index: "immo", ID: "b"},
					Status: 400,
					Error:  json.RawMessage(`{"type":"mapper_parsing_exception"}`),
				},
			},
		},
		{
			name:    "error - item count mismatch",
			body:    `{"errors":true,"items":[{"index":{"_id":"a","status":400}}]}`,
			wantErr: true,
		},
		{
			name:    "error - invalid body",
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			failed, err := VerifyResponse([]byte(tc.body), newItems())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, failed, len(tc.wantFailed))
			for i := range tc.wantFailed {
				require.Equal(t, tc.wantFailed[i].Index, failed[i].Index)
				require.Equal(t, tc.wantFailed[i].Status, failed[i].Status)
				require.JSONEq(t, string(tc.wantFailed[i].Error), string(failed[i].Error))
			}
		})
	}
}

func TestVerifyCreateIndexResponse(t *testing.T) {
	t.Parallel()

	require.NoError(t, VerifyCreateIndexResponse([]byte(`{"acknowledged":true,"shards_acknowledged":true,"index":"immo"}`)))
	require.ErrorIs(t, VerifyCreateIndexResponse([]byte(`{"acknowledged":false,"index":"immo"}`)), ErrNotAcknowledged)
	require.Error(t, VerifyCreateIndexResponse([]byte(`{`)))
}
