package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// PostgresStore persists one JSONB document per tenant in tenant_snapshots.
// The version column gives compare-and-swap semantics on Save; the Locker
// already serializes writers, the version check is the backstop for a second
// process bypassing it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a PostgresStore on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load implements SnapshotStore.
func (s *PostgresStore) Load(ctx context.Context, tenantKey string) (Snapshot, int64, error) {
	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT doc, version FROM tenant_snapshots WHERE tenant_key = $1`,
		tenantKey,
	).Scan(&raw, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewSnapshot(tenantKey), 0, nil
		}
		return Snapshot{}, 0, fmt.Errorf("ledger: select snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, 0, fmt.Errorf("ledger: decode snapshot: %w", err)
	}
	return snap, version, nil
}

// Save implements SnapshotStore.
func (s *PostgresStore) Save(ctx context.Context, tenantKey string, snap Snapshot, version int64) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ledger: encode snapshot: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if version == 0 {
		tag, err := tx.Exec(ctx,
			`INSERT INTO tenant_snapshots (tenant_key, doc, version) VALUES ($1, $2, 1)
			 ON CONFLICT (tenant_key) DO NOTHING`,
			tenantKey, raw,
		)
		if err != nil {
			return fmt.Errorf("ledger: insert snapshot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("ledger: snapshot version moved: %w", shared.ErrConcurrency)
		}
	} else {
		tag, err := tx.Exec(ctx,
			`UPDATE tenant_snapshots SET doc = $2, version = version + 1, updated_at = NOW()
			 WHERE tenant_key = $1 AND version = $3`,
			tenantKey, raw, version,
		)
		if err != nil {
			return fmt.Errorf("ledger: update snapshot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("ledger: snapshot version moved: %w", shared.ErrConcurrency)
		}
	}
	return tx.Commit(ctx)
}

// Tenants implements SnapshotStore.
func (s *PostgresStore) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT tenant_key FROM tenant_snapshots ORDER BY tenant_key`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list tenants: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("ledger: scan tenant: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
