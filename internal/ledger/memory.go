package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// MemoryStore keeps snapshots in process memory as serialized documents, so
// every Load hands out an independent working copy. Used in tests and for
// ephemeral deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	versions map[string]int64
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte), versions: make(map[string]int64)}
}

// Load implements SnapshotStore.
func (s *MemoryStore) Load(ctx context.Context, tenantKey string) (Snapshot, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[tenantKey]
	if !ok {
		return NewSnapshot(tenantKey), 0, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return Snapshot{}, 0, fmt.Errorf("ledger: decode snapshot: %w", err)
	}
	return snap, s.versions[tenantKey], nil
}

// Save implements SnapshotStore.
func (s *MemoryStore) Save(ctx context.Context, tenantKey string, snap Snapshot, version int64) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ledger: encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[tenantKey] != version {
		return fmt.Errorf("ledger: snapshot version moved: %w", shared.ErrConcurrency)
	}
	s.docs[tenantKey] = doc
	s.versions[tenantKey] = version + 1
	return nil
}

// Tenants implements SnapshotStore.
func (s *MemoryStore) Tenants(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
