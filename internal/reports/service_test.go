package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/recipes"
	"github.com/NDJ-create/backend-stockage-clean/internal/sales"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
)

func testActor() shared.Identity {
	return shared.Identity{ActorID: "user-1", Role: "manager", TenantKey: "resto-1"}
}

func TestSummarizeEmptyTenant(t *testing.T) {
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	svc := NewService(manager)

	summary, err := svc.Summarize(context.Background(), testActor())
	require.NoError(t, err)
	require.Empty(t, summary.Expenses)
	require.Empty(t, summary.Revenue)
	require.True(t, summary.TotalExpenses.IsZero())
	require.True(t, summary.TotalRevenue.IsZero())
	require.True(t, summary.NetProfit.IsZero())
}

func TestSummarizeDerivesTotalsAtReadTime(t *testing.T) {
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	svc := NewService(manager)
	stockSvc := stock.NewService(manager, nil)
	recipeSvc := recipes.NewService(manager, nil)
	saleSvc := sales.NewService(manager, nil)
	ctx := context.Background()
	actor := testActor()

	// Adding stock books an expense of cost * quantity.
	item, err := stockSvc.AddItem(ctx, actor, stock.AddItemInput{
		Name:     "Flour",
		Quantity: decimal.NewFromInt(10),
		Unit:     "kg",
		Cost:     decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	recipe, err := recipeSvc.Add(ctx, actor, recipes.AddInput{
		Name:  "Bread",
		Price: decimal.NewFromInt(20),
		Ingredients: []recipes.IngredientInput{
			{StockItemID: item.ID, Quantity: decimal.NewFromInt(2), Unit: "kg"},
		},
	})
	require.NoError(t, err)

	sale, err := saleSvc.Create(ctx, actor, sales.CreateInput{RecipeID: recipe.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = saleSvc.Validate(ctx, actor, sale.ID)
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, actor)
	require.NoError(t, err)

	require.Len(t, summary.Expenses, 1)
	require.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(20)))
	require.Len(t, summary.Revenue, 1)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(60)))
	require.Len(t, summary.Profit, 1)
	require.True(t, summary.NetProfit.Equal(decimal.NewFromInt(40)))
}

func TestSummarizeIsTenantScoped(t *testing.T) {
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	svc := NewService(manager)
	stockSvc := stock.NewService(manager, nil)
	ctx := context.Background()

	actorA := shared.Identity{ActorID: "a", Role: "manager", TenantKey: "resto-a"}
	actorB := shared.Identity{ActorID: "b", Role: "manager", TenantKey: "resto-b"}

	_, err := stockSvc.AddItem(ctx, actorA, stock.AddItemInput{
		Name:     "Flour",
		Quantity: decimal.NewFromInt(10),
		Unit:     "kg",
		Cost:     decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	summaryB, err := svc.Summarize(ctx, actorB)
	require.NoError(t, err)
	require.True(t, summaryB.TotalExpenses.IsZero())
}
