package item

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ErrItemNotFound is returned when an id was never assigned or has been deleted.
var ErrItemNotFound = errors.New("item not found")

// Store exposes item access for HTTP handlers.
type Store interface {
	Create(name, description string) Item
	List() []Item
	Get(id uint64) (Item, error)
	Delete(id uint64) (Item, error)
	Len() int
}

// MemoryStore implements Store with a slice guarded by a single mutex.
// Reads and writes share the same exclusive lock.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint64
	items  []Item
	log    *zap.Logger
}

// NewMemoryStore returns an empty MemoryStore. A nil logger disables logging.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		items: make([]Item, 0, 16),
		log:   logger,
	}
}

// Create appends a new item and returns a copy of it.
//
// The id is the number of items ever created by this store, so without
// deletions it equals the length of the list at insertion time. Ids of
// deleted items are never handed out again.
func (s *MemoryStore) Create(name, description string) Item {
	s.mu.Lock()
	created := Item{
		ID:          s.nextID,
		Name:        name,
		Description: description,
	}
	s.nextID++
	s.items = append(s.items, created)
	s.mu.Unlock()

	s.log.Debug("item created", zap.Uint64("id", created.ID))
	return created
}

// List returns a copy of every stored item in creation order.
func (s *MemoryStore) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Item, len(s.items))
	copy(copied, s.items)
	return copied
}

// Get looks up an item by identifier.
func (s *MemoryStore) Get(id uint64) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexOf(id)
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return s.items[idx], nil
}

// Delete removes an item and returns it. Remaining items keep their order.
func (s *MemoryStore) Delete(id uint64) (Item, error) {
	s.mu.Lock()
	idx, ok := s.indexOf(id)
	if !ok {
		s.mu.Unlock()
		return Item{}, ErrItemNotFound
	}
	removed := s.items[idx]
	s.items = slices.Delete(s.items, idx, idx+1)
	s.mu.Unlock()

	s.log.Debug("item deleted", zap.Uint64("id", removed.ID))
	return removed, nil
}

// Len reports how many items are currently stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// indexOf relies on items being sorted by id, which holds because ids only
// grow and deletion preserves order. Callers must hold s.mu.
func (s *MemoryStore) indexOf(id uint64) (int, bool) {
	return slices.BinarySearchFunc(s.items, id, func(it Item, target uint64) int {
		return cmp.Compare(it.ID, target)
	})
}
