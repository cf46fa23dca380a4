package preview

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix is the URL path under which preview references are served.
const Prefix = "/preview/"

type entry struct {
	data        []byte
	contentType string
}

// Store holds image bytes behind short-lived preview references.
type Store struct {
	entries map[string]entry
	mu      sync.RWMutex
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
	}
}

// Put registers data and returns a new, never reused reference.
func (s *Store) Put(data []byte, contentType string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{data: data, contentType: contentType}
	return Prefix + id
}

func (s *Store) Get(ref string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.entries[ID(ref)]
	return e.data, e.contentType, exists
}

// Release drops the bytes behind ref. Unknown references are ignored.
func (s *Store) Release(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, ID(ref))
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ID strips the URL prefix from a reference.
func ID(ref string) string {
	return strings.TrimPrefix(ref, Prefix)
}
