package movements

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

func newFixture(t *testing.T) (*Service, *stock.Service) {
	t.Helper()
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	return NewService(manager), stock.NewService(manager, nil)
}

func testActor() shared.Identity {
	return shared.Identity{ActorID: "user-1", Role: "manager", TenantKey: "resto-1"}
}

func TestListNewestFirstWithItemName(t *testing.T) {
	svc, stockSvc := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(10), Unit: "kg", Cost: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	newQty := decimal.NewFromInt(4)
	_, err = stockSvc.UpdateItem(ctx, actor, item.ID, stock.UpdateItemInput{Quantity: &newQty})
	require.NoError(t, err)

	entries, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ledger.MovementAdjust, entries[0].Kind)
	require.True(t, entries[0].Delta.Equal(decimal.NewFromInt(-6)))
	require.True(t, entries[0].StockBefore.Equal(decimal.NewFromInt(10)))
	require.Equal(t, ledger.MovementRestock, entries[1].Kind)
	require.Equal(t, "Flour", entries[0].ItemName)
	require.Equal(t, actor.ActorID, entries[0].ActorID)
}

func TestListKeepsMovementsOfDeletedItems(t *testing.T) {
	svc, stockSvc := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(10), Unit: "kg",
	})
	require.NoError(t, err)
	require.NoError(t, stockSvc.DeleteItem(ctx, actor, item.ID))

	entries, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ledger.MovementDelete, entries[0].Kind)
	// The item is gone from the catalog, so no name resolves.
	require.Empty(t, entries[0].ItemName)
	require.Equal(t, item.ID, entries[0].StockItemID)
}

func TestListEmptyTenantReturnsEmptySlice(t *testing.T) {
	svc, _ := newFixture(t)

	entries, err := svc.List(context.Background(), testActor())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestListIsTenantScoped(t *testing.T) {
	svc, stockSvc := newFixture(t)
	ctx := context.Background()

	_, err := stockSvc.AddItem(ctx, testActor(), stock.AddItemInput{
		Name: "Flour", Quantity: decimal.NewFromInt(10), Unit: "kg",
	})
	require.NoError(t, err)

	other := shared.Identity{ActorID: "user-2", Role: "manager", TenantKey: "resto-2"}
	entries, err := svc.List(ctx, other)
	require.NoError(t, err)
	require.Empty(t, entries)
}
