package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap, version, err := store.Load(ctx, "resto-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, version)
	require.Equal(t, "resto-1", snap.TenantKey)

	snap.Stock = append(snap.Stock, StockItem{ID: "item-1", Name: "Flour", Quantity: decimal.NewFromInt(2), Unit: "kg"})
	require.NoError(t, store.Save(ctx, "resto-1", snap, version))

	loaded, version, err := store.Load(ctx, "resto-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
	require.Len(t, loaded.Stock, 1)
	require.Equal(t, "Flour", loaded.Stock[0].Name)
	require.True(t, loaded.Stock[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestFileStoreVersionConflict(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap, version, err := store.Load(ctx, "resto-1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "resto-1", snap, version))

	err = store.Save(ctx, "resto-1", snap, version)
	require.ErrorIs(t, err, shared.ErrConcurrency)
}

func TestFileStoreTenantsReturnsRealKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// Keys with characters a filename cannot carry still list correctly.
	for _, key := range []string{"resto/uno", "resto-b", "resto-a"} {
		snap, version, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, key, snap, version))
	}

	tenants, err := store.Tenants(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"resto-a", "resto-b", "resto/uno"}, tenants)
}

func TestFileStoreRejectsEmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}
