// Package search keeps a Meilisearch index of found items for keyword lookup.
package search

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog/log"
)

const foundIndex = "found_items"

// FoundDoc is the indexed projection of a found item
type FoundDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	FoundPlace  string `json:"found_place"`
	Status      string `json:"status"`
	FoundAt     int64  `json:"found_at"`
	CreatedAt   int64  `json:"created_at"`
}

// Index is implemented by the Meilisearch client and by NoopIndex
type Index interface {
	IndexFound(doc FoundDoc) error
	DeleteFound(id string) error
	SearchFound(query string, filter string, limit, offset int) (ids []string, total int, err error)
}

// MeiliIndex indexes found items in Meilisearch
type MeiliIndex struct {
	client meilisearch.ServiceManager
}

// NewMeiliIndex connects to Meilisearch and configures the found index
func NewMeiliIndex(host, apiKey string) *MeiliIndex {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	idx := &MeiliIndex{client: client}
	idx.initIndex()
	return idx
}

func (m *MeiliIndex) initIndex() {
	filterable := []any{"category", "status"}
	if _, err := m.client.Index(foundIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("Failed to update found index filterable attributes")
	}

	sortable := []string{"found_at", "created_at"}
	if _, err := m.client.Index(foundIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("Failed to update found index sortable attributes")
	}
}

func (m *MeiliIndex) IndexFound(doc FoundDoc) error {
	if _, err := m.client.Index(foundIndex).AddDocuments([]FoundDoc{doc}, strPtr("id")); err != nil {
		return fmt.Errorf("index found item %s: %w", doc.ID, err)
	}
	return nil
}

func (m *MeiliIndex) DeleteFound(id string) error {
	if _, err := m.client.Index(foundIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("delete found item %s: %w", id, err)
	}
	return nil
}

func (m *MeiliIndex) SearchFound(query string, filter string, limit, offset int) ([]string, int, error) {
	req := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Offset:               int64(offset),
		AttributesToRetrieve: []string{"id"},
	}
	if filter != "" {
		req.Filter = filter
	}

	resp, err := m.client.Index(foundIndex).Search(query, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search found items: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &doc); err == nil && doc.ID != "" {
			ids = append(ids, doc.ID)
		}
	}

	return ids, int(resp.EstimatedTotalHits), nil
}

// NoopIndex is used when search is not configured
type NoopIndex struct{}

func (NoopIndex) IndexFound(FoundDoc) error { return nil }
func (NoopIndex) DeleteFound(string) error  { return nil }
func (NoopIndex) SearchFound(string, string, int, int) ([]string, int, error) {
	return nil, 0, ErrDisabled
}

// ErrDisabled is returned by NoopIndex searches so callers can fall back to SQL
var ErrDisabled = errors.New("search index disabled")

func strPtr(s string) *string { return &s }
