package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// FileStore persists one JSON document per tenant under a directory. Writes
// go through a temp file and rename so a crash mid-persist leaves the prior
// snapshot in place.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type fileDoc struct {
	Version  int64    `json:"version"`
	Snapshot Snapshot `json:"snapshot"`
}

// NewFileStore builds a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("ledger: data directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(tenantKey string) string {
	return filepath.Join(s.dir, sanitizeKey(tenantKey)+".json")
}

// Load implements SnapshotStore.
func (s *FileStore) Load(ctx context.Context, tenantKey string) (Snapshot, int64, error) {
	raw, err := os.ReadFile(s.path(tenantKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewSnapshot(tenantKey), 0, nil
		}
		return Snapshot{}, 0, fmt.Errorf("ledger: read snapshot: %w", err)
	}
	var doc fileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, 0, fmt.Errorf("ledger: decode snapshot: %w", err)
	}
	return doc.Snapshot, doc.Version, nil
}

// Save implements SnapshotStore.
func (s *FileStore) Save(ctx context.Context, tenantKey string, snap Snapshot, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, currentVersion, err := s.Load(ctx, tenantKey)
	if err != nil {
		return err
	}
	if currentVersion != version {
		return fmt.Errorf("ledger: snapshot version moved: %w", shared.ErrConcurrency)
	}

	raw, err := json.MarshalIndent(fileDoc{Version: version + 1, Snapshot: snap}, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode snapshot: %w", err)
	}
	target := s.path(tenantKey)
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger: write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("ledger: replace snapshot: %w", err)
	}
	return nil
}

// Tenants implements SnapshotStore.
func (s *FileStore) Tenants(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ledger: list data dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("ledger: read snapshot: %w", err)
		}
		var doc fileDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("ledger: decode snapshot: %w", err)
		}
		if doc.Snapshot.TenantKey != "" {
			keys = append(keys, doc.Snapshot.TenantKey)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// sanitizeKey keeps licence keys filesystem-safe.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
