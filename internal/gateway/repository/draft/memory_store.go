package draft

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMemorySize = 256
	DefaultMemoryTTL  = 24 * time.Hour
)

// MemoryStore keeps the most recent drafts in process. The least recently
// used run is evicted once size is reached, and every run expires after ttl.
type MemoryStore struct {
	cache *expirable.LRU[string, Document]
}

// NewMemoryStore holds up to size runs for ttl. Non-positive values fall back
// to DefaultMemorySize and DefaultMemoryTTL.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &MemoryStore{cache: expirable.NewLRU[string, Document](size, nil, ttl)}
}

func (s *MemoryStore) Put(_ context.Context, doc Document) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := validRunID(doc.RunID)
	if err != nil {
		return err
	}
	doc.RunID = id
	doc.Warned = append([]string(nil), doc.Warned...)
	s.cache.Add(id, doc)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (Document, error) {
	if s == nil || s.cache == nil {
		return Document{}, fmt.Errorf("store is nil")
	}
	id, err := validRunID(runID)
	if err != nil {
		return Document{}, err
	}
	doc, ok := s.cache.Get(id)
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Warned = append([]string(nil), doc.Warned...)
	return doc, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	if s == nil || s.cache == nil {
		return nil, fmt.Errorf("store is nil")
	}
	out := s.cache.Keys()
	sort.Strings(out)
	return out, nil
}
