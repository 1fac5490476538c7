package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arborlabs/arbor/pkg/dialog"
)

// GraphStore implements ports.GraphStore in memory.
// Safe for concurrent use.
type GraphStore struct {
	docs map[string]*dialog.Document
	mu   sync.RWMutex
}

// NewGraphStore creates a new in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{docs: make(map[string]*dialog.Document)}
}

// Save stores a deep copy of the document under name.
func (s *GraphStore) Save(ctx context.Context, name string, doc *dialog.Document) error {
	if name == "" {
		return fmt.Errorf("graph name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = doc.Clone()
	return nil
}

// Load returns a deep copy of the stored document.
func (s *GraphStore) Load(ctx context.Context, name string) (*dialog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("graph %q: %w", name, dialog.ErrDocumentNotFound)
	}
	return doc.Clone(), nil
}

// List returns stored graph names in lexical order.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}

// Delete removes the document stored under name.
func (s *GraphStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[name]; !ok {
		return fmt.Errorf("graph %q: %w", name, dialog.ErrDocumentNotFound)
	}
	delete(s.docs, name)
	return nil
}
