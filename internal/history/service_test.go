package history

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
)

func newFixture(t *testing.T) (*Service, *stock.Service, *ledger.Manager) {
	t.Helper()
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	return NewService(manager), stock.NewService(manager, nil), manager
}

func testActor() shared.Identity {
	return shared.Identity{ActorID: "user-1", Role: "manager", TenantKey: "resto-1"}
}

func TestListNewestFirstWithAttribution(t *testing.T) {
	svc, stockSvc, _ := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	first, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(1), Unit: "kg",
	})
	require.NoError(t, err)
	_, err = stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Milk", Quantity: decimal.NewFromInt(1), Unit: "l",
	})
	require.NoError(t, err)

	entries, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, shared.ActionStockAdd, entries[0].ActionType)
	require.Equal(t, "Milk", entries[0].Details["name"])
	require.Equal(t, "Flour", entries[1].Details["name"])
	require.Equal(t, first.ID, entries[1].Details["productId"])
	require.Equal(t, actor.ActorID, entries[0].Actor.ID)
	require.Equal(t, actor.Role, entries[0].Actor.Role)
}

func TestListHydratesCurrentName(t *testing.T) {
	svc, stockSvc, _ := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(1), Unit: "kg",
	})
	require.NoError(t, err)

	name := "Organic Flour"
	_, err = stockSvc.UpdateItem(ctx, actor, item.ID, stock.UpdateItemInput{Name: &name})
	require.NoError(t, err)

	entries, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// The add entry shows the item's current name, not the one at write time.
	require.Equal(t, "Organic Flour", entries[0].Details["name"])
}

func TestListFallsBackToFrozenDetailsAfterDelete(t *testing.T) {
	svc, stockSvc, _ := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(1), Unit: "kg",
	})
	require.NoError(t, err)
	require.NoError(t, stockSvc.DeleteItem(ctx, actor, item.ID))

	entries, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, shared.ActionStockDelete, entries[0].ActionType)
	// Both entries keep the frozen name even though the item is gone.
	require.Equal(t, "Flour", entries[0].Details["name"])
	require.Equal(t, "Flour", entries[1].Details["name"])
}

func TestListDoesNotMutateStoredDetails(t *testing.T) {
	svc, stockSvc, manager := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(1), Unit: "kg",
	})
	require.NoError(t, err)
	name := "Organic Flour"
	_, err = stockSvc.UpdateItem(ctx, actor, item.ID, stock.UpdateItemInput{Name: &name})
	require.NoError(t, err)

	_, err = svc.List(ctx, actor)
	require.NoError(t, err)

	err = manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		for _, logged := range snap.ActionLog {
			if logged.Action == shared.ActionStockAdd {
				require.Equal(t, "Flour", logged.Details["name"])
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestListEmptyTenantReturnsEmptySlice(t *testing.T) {
	svc, _, _ := newFixture(t)

	entries, err := svc.List(context.Background(), testActor())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
