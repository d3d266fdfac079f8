package memory

import (
	"sync"

	"github.com/tokenward/tokenward-go/pkg/cmap"
)

// idSet is a concurrent-safe set of token IDs.
type idSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{items: make(map[string]struct{})}
}

func (s *idSet) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

func (s *idSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *idSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *idSet) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	return ids
}

// OwnerIndex maps an owner key (kind/id) to the set of its token IDs,
// enabling owner-scoped listing and bulk revocation without a full
// scan.
type OwnerIndex struct {
	index *cmap.Map[*idSet]
}

// NewOwnerIndex creates an empty owner index.
func NewOwnerIndex() *OwnerIndex {
	return &OwnerIndex{index: cmap.New[*idSet]()}
}

// Add records a token under an owner key.
func (i *OwnerIndex) Add(ownerKey, tokenID string) {
	set, _ := i.index.GetOrSet(ownerKey, newIDSet())
	set.add(tokenID)
}

// Remove drops a token from an owner key, cleaning up empty sets.
func (i *OwnerIndex) Remove(ownerKey, tokenID string) {
	set, ok := i.index.Get(ownerKey)
	if !ok {
		return
	}
	set.remove(tokenID)
	if set.len() == 0 {
		i.index.Delete(ownerKey)
	}
}

// Get returns the token IDs recorded under an owner key.
func (i *OwnerIndex) Get(ownerKey string) []string {
	set, ok := i.index.Get(ownerKey)
	if !ok {
		return nil
	}
	return set.ids()
}

// Count returns the number of tokens under an owner key.
func (i *OwnerIndex) Count(ownerKey string) int {
	set, ok := i.index.Get(ownerKey)
	if !ok {
		return 0
	}
	return set.len()
}
