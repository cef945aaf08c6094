// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xataio/vdbgateway/internal/searchstore"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type Status struct {
	Config  *ConfigStatus  `json:"config"`
	Engine  *EngineStatus  `json:"engine"`
	Indices []*IndexStatus `json:"indices,omitempty"`
}

type ConfigStatus struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

type EngineStatus struct {
	Type      EngineType `json:"type"`
	URL       string     `json:"url"`
	Reachable bool       `json:"reachable"`
	Errors    []string   `json:"errors,omitempty"`
}

type IndexStatus struct {
	Name          string   `json:"name"`
	Exists        bool     `json:"exists"`
	DocumentCount int      `json:"document_count"`
	Errors        []string `json:"errors,omitempty"`
}

type StatusErrors map[string][]string

// StatusChecker reports whether the gateway configuration is valid, whether
// the search engine can be reached and the state of the indices on input.
type StatusChecker struct {
	clientBuilder func(*EngineConfig) (searchstore.Client, error)
}

const engineNotReachable = "search engine not reachable"

func NewStatusChecker() *StatusChecker {
	return &StatusChecker{
		clientBuilder: func(cfg *EngineConfig) (searchstore.Client, error) {
			return NewEngineClient(cfg, loglib.NewNoopLogger(), nil)
		},
	}
}

func (s *StatusChecker) Status(ctx context.Context, config *Config, indices []string) (*Status, error) {
	status := &Status{
		Config: configStatus(config),
		Engine: &EngineStatus{
			Type: config.Engine.engineType(),
			URL:  config.Engine.URL,
		},
	}
	if !status.Config.Valid {
		status.Engine.Errors = []string{"engine not checked, invalid configuration"}
		return status, nil
	}

	client, err := s.clientBuilder(&config.Engine)
	if err != nil {
		return nil, fmt.Errorf("building search engine client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		status.Engine.Errors = []string{fmt.Sprintf("%s: %v", engineNotReachable, err)}
		return status, nil
	}
	status.Engine.Reachable = true

	for _, name := range indices {
		status.Indices = append(status.Indices, indexStatus(ctx, client, name))
	}

	return status, nil
}

func configStatus(config *Config) *ConfigStatus {
	if err := config.IsValid(); err != nil {
		return &ConfigStatus{Valid: false, Errors: []string{err.Error()}}
	}
	return &ConfigStatus{Valid: true}
}

func indexStatus(ctx context.Context, client searchstore.Client, name string) *IndexStatus {
	status := &IndexStatus{Name: name}
	if err := schema.ValidateIndexName(name); err != nil {
		status.Errors = []string{err.Error()}
		return status
	}

	exists, err := client.IndexExists(ctx, name)
	if err != nil {
		status.Errors = []string{fmt.Sprintf("checking index existence: %v", err)}
		return status
	}
	status.Exists = exists
	if !exists {
		return status
	}

	count, err := client.Count(ctx, name)
	if err != nil {
		status.Errors = []string{fmt.Sprintf("counting documents: %v", err)}
		return status
	}
	status.DocumentCount = count

	return status
}

func (s *Status) GetErrors() StatusErrors {
	if s == nil {
		return nil
	}

	errors := StatusErrors{}
	if s.Config != nil && len(s.Config.Errors) > 0 {
		errors["config"] = s.Config.Errors
	}

	if s.Engine != nil && len(s.Engine.Errors) > 0 {
		errors["engine"] = s.Engine.Errors
	}

	for _, idx := range s.Indices {
		if len(idx.Errors) > 0 {
			errors["index "+idx.Name] = idx.Errors
		}
	}

	return errors
}

// Keys returns the sorted names of the components with errors.
func (se StatusErrors) Keys() []string {
	return slices.Sorted(maps.Keys(se))
}

func (s *Status) PrettyPrint() string {
	if s == nil {
		return ""
	}

	var prettyPrint strings.Builder
	prettyPrint.WriteString(s.Config.PrettyPrint())
	prettyPrint.WriteByte('\n')
	prettyPrint.WriteString(s.Engine.PrettyPrint())
	for _, idx := range s.Indices {
		prettyPrint.WriteByte('\n')
		prettyPrint.WriteString(idx.PrettyPrint())
	}

	return prettyPrint.String()
}

func (cs *ConfigStatus) PrettyPrint() string {
	if cs == nil {
		return ""
	}

	var prettyPrint strings.Builder
	prettyPrint.WriteString("Config status:\n")
	prettyPrint.WriteString(fmt.Sprintf(" - Valid: %t\n", cs.Valid))
	if len(cs.Errors) > 0 {
		prettyPrint.WriteString(fmt.Sprintf(" - Errors: %s\n", cs.Errors))
	}

	// trim the last newline character
	return prettyPrint.String()[:len(prettyPrint.String())-1]
}

func (es *EngineStatus) PrettyPrint() string {
	if es == nil {
		return ""
	}

	var prettyPrint strings.Builder
	prettyPrint.WriteString("Engine status:\n")
	prettyPrint.WriteString(fmt.Sprintf(" - Type: %s\n", es.Type))
	prettyPrint.WriteString(fmt.Sprintf(" - URL: %s\n", es.URL))
	prettyPrint.WriteString(fmt.Sprintf(" - Reachable: %t\n", es.Reachable))
	if len(es.Errors) > 0 {
		prettyPrint.WriteString(fmt.Sprintf(" - Errors: %s\n", es.Errors))
	}

	return prettyPrint.String()[:len(prettyPrint.String())-1]
}

func (is *IndexStatus) PrettyPrint() string {
	if is == nil {
		return ""
	}

	var prettyPrint strings.Builder
	prettyPrint.WriteString(fmt.Sprintf("Index %s status:\n", is.Name))
	prettyPrint.WriteString(fmt.Sprintf(" - Exists: %t\n", is.Exists))
	if is.Exists {
		prettyPrint.WriteString(fmt.Sprintf(" - Documents: %d\n", is.DocumentCount))
	}
	if len(is.Errors) > 0 {
		prettyPrint.WriteString(fmt.Sprintf(" - Errors: %s\n", is.Errors))
	}

	return prettyPrint.String()[:len(prettyPrint.String())-1]
}
