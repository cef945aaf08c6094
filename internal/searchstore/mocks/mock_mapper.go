// SPDX-License-Identifier: Apache-2.0

package mocks

import "github.com/xataio/vdbgateway/internal/searchstore"

type Mapper struct {
	GetDefaultIndexSettingsFn func() map[string]any
	FieldMappingFn            func(*searchstore.Field) (map[string]any, error)
	KNNQueryFn                func(*searchstore.KNNRequest) *searchstore.QueryBody
}

func (m *Mapper) GetDefaultIndexSettings() map[string]any {
	if m.GetDefaultIndexSettingsFn == nil {
		return map[string]any{}
	}
	return m.GetDefaultIndexSettingsFn()
}

func (m *Mapper) FieldMapping(f *searchstore.Field) (map[string]any, error) {
	return m.FieldMappingFn(f)
}

func (m *Mapper) KNNQuery(req *searchstore.KNNRequest) *searchstore.QueryBody {
	return m.KNNQueryFn(req)
}
