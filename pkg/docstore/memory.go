package docstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process. It backs tests and the "memory" docstore mode.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]*Document
	clock func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string]*Document),
		clock: time.Now,
	}
}

// WithClock overrides the timestamp source
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func copyDoc(d *Document) *Document {
	c := *d
	c.Data = append([]byte(nil), d.Data...)
	return &c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound(collection, id)
	}
	return copyDoc(doc), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, 0, len(s.docs[collection]))
	for _, doc := range s.docs[collection] {
		out = append(out, copyDoc(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, doc *Document) error {
	if doc.Collection == "" || doc.ID == "" {
		return ErrInvalidDocument().WithDetail("reason", "collection and id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.docs[doc.Collection]
	if !ok {
		coll = make(map[string]*Document)
		s.docs[doc.Collection] = coll
	}
	if _, exists := coll[doc.ID]; exists {
		return ErrAlreadyExists(doc.Collection, doc.ID)
	}

	now := s.clock()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now
	coll[doc.ID] = copyDoc(doc)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[doc.Collection][doc.ID]
	if !ok {
		return ErrNotFound(doc.Collection, doc.ID)
	}
	if doc.Version != 0 && doc.Version != current.Version {
		return ErrVersionConflict(doc.Collection, doc.ID, doc.Version)
	}

	doc.Version = current.Version + 1
	doc.CreatedAt = current.CreatedAt
	doc.UpdatedAt = s.clock()
	s.docs[doc.Collection][doc.ID] = copyDoc(doc)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[collection][id]; !ok {
		return ErrNotFound(collection, id)
	}
	delete(s.docs[collection], id)
	return nil
}
