package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// SnapshotStore is the durable get/put boundary: one named document per
// tenant. Implementations must reject a Save whose version no longer matches
// the loaded one with shared.ErrConcurrency.
type SnapshotStore interface {
	// Load returns the current snapshot and its version. A tenant never seen
	// before yields an empty snapshot at version 0, not an error.
	Load(ctx context.Context, tenantKey string) (Snapshot, int64, error)
	// Save persists the snapshot, expecting the given version to still be
	// current.
	Save(ctx context.Context, tenantKey string, snap Snapshot, version int64) error
	// Tenants lists every tenant key with a stored snapshot.
	Tenants(ctx context.Context) ([]string, error)
}

// Locker serializes writers per tenant. Acquire blocks until the tenant's
// write scope is free or the attempt times out with shared.ErrConcurrency.
type Locker interface {
	Acquire(ctx context.Context, tenantKey string) (release func(), err error)
}

// TxMetrics receives transaction outcome counts. Implementations must be
// safe for concurrent use.
type TxMetrics interface {
	TxCommitted(duration time.Duration)
	TxRolledBack()
	TxContended()
}

// Manager owns the tenant-partitioned snapshots and exposes atomic
// read-modify-write transactions over them. All mutating operations against
// the same tenant are serialized through the Locker; operations against
// different tenants run in parallel.
type Manager struct {
	store   SnapshotStore
	locks   Locker
	logger  *slog.Logger
	metrics TxMetrics
}

// NewManager builds a Manager. metrics may be nil.
func NewManager(store SnapshotStore, locks Locker, logger *slog.Logger, metrics TxMetrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, locks: locks, logger: logger, metrics: metrics}
}

// WithTenantTx loads the tenant's snapshot, passes a working copy to fn and
// persists it when fn returns nil. Any error from fn discards the copy and
// leaves durable state untouched; no partial write is ever observable.
func (m *Manager) WithTenantTx(ctx context.Context, tenantKey string, fn func(*Snapshot) error) error {
	if tenantKey == "" {
		return fmt.Errorf("ledger: tenant key required: %w", shared.ErrValidation)
	}
	release, err := m.locks.Acquire(ctx, tenantKey)
	if err != nil {
		if m.metrics != nil {
			m.metrics.TxContended()
		}
		return err
	}
	defer release()

	start := time.Now()
	snap, version, err := m.store.Load(ctx, tenantKey)
	if err != nil {
		return fmt.Errorf("ledger: load snapshot: %w", err)
	}
	if err := fn(&snap); err != nil {
		if m.metrics != nil {
			m.metrics.TxRolledBack()
		}
		return err
	}
	if err := m.store.Save(ctx, tenantKey, snap, version); err != nil {
		if m.metrics != nil {
			m.metrics.TxRolledBack()
		}
		return fmt.Errorf("ledger: persist snapshot: %w", err)
	}
	if m.metrics != nil {
		m.metrics.TxCommitted(time.Since(start))
	}
	return nil
}

// View passes a read-only copy of the current snapshot to fn without taking
// the write lock. A concurrently committing write is tolerated; readers see
// either the prior or the new snapshot, never a partial one.
func (m *Manager) View(ctx context.Context, tenantKey string, fn func(*Snapshot) error) error {
	if tenantKey == "" {
		return fmt.Errorf("ledger: tenant key required: %w", shared.ErrValidation)
	}
	snap, _, err := m.store.Load(ctx, tenantKey)
	if err != nil {
		return fmt.Errorf("ledger: load snapshot: %w", err)
	}
	return fn(&snap)
}

// Tenants lists every tenant with stored state.
func (m *Manager) Tenants(ctx context.Context) ([]string, error) {
	return m.store.Tenants(ctx)
}
