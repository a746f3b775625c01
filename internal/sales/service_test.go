package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/recipes"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
)

type fixture struct {
	sales   *Service
	stock   *stock.Service
	recipes *recipes.Service
	manager *ledger.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := ledger.NewManager(ledger.NewMemoryStore(), ledger.NewLocalLocker(time.Second), nil, nil)
	return &fixture{
		sales:   NewService(manager, nil),
		stock:   stock.NewService(manager, nil),
		recipes: recipes.NewService(manager, nil),
		manager: manager,
	}
}

func testActor() shared.Identity {
	return shared.Identity{ActorID: "user-1", Role: "manager", TenantKey: "resto-1"}
}

func (f *fixture) seedRecipe(t *testing.T, itemQty, itemCost, perPortion, price int64) (ledger.StockItem, ledger.Recipe) {
	t.Helper()
	ctx := context.Background()
	actor := testActor()
	item, err := f.stock.AddItem(ctx, actor, stock.AddItemInput{
		Name:     "Flour",
		Quantity: decimal.NewFromInt(itemQty),
		Unit:     "kg",
		Cost:     decimal.NewFromInt(itemCost),
	})
	require.NoError(t, err)
	recipe, err := f.recipes.Add(ctx, actor, recipes.AddInput{
		Name:  "Bread",
		Price: decimal.NewFromInt(price),
		Ingredients: []recipes.IngredientInput{
			{StockItemID: item.ID, Quantity: decimal.NewFromInt(perPortion), Unit: "kg"},
		},
	})
	require.NoError(t, err)
	return item, recipe
}

func TestCreatePricesFromRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	_, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, ledger.SalePending, sale.Status)
	require.True(t, sale.TotalPrice.Equal(decimal.NewFromInt(60)))
	require.Equal(t, "anonymous", sale.Client)
	require.Equal(t, "Bread", sale.RecipeName)
	// Cost and profit are not known until validation.
	require.True(t, sale.CostTotal.IsZero())
	require.True(t, sale.Profit.IsZero())
}

func TestCreateUnknownRecipe(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.Create(context.Background(), testActor(), CreateInput{RecipeID: "missing", Quantity: 1})
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	_, err := f.sales.Create(ctx, actor, CreateInput{Quantity: 1})
	require.True(t, errors.Is(err, shared.ErrValidation))

	_, err = f.sales.Create(ctx, actor, CreateInput{RecipeID: "r", Quantity: 0})
	require.True(t, errors.Is(err, shared.ErrValidation))
}

func TestValidateDeductsScaledStockAndFreezesFinancials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	item, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 3, Client: "walk-in"})
	require.NoError(t, err)

	validated, err := f.sales.Validate(ctx, actor, sale.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.SaleValidated, validated.Status)
	require.True(t, validated.TotalPrice.Equal(decimal.NewFromInt(60)))
	require.True(t, validated.CostTotal.Equal(decimal.NewFromInt(12)))
	require.True(t, validated.Profit.Equal(decimal.NewFromInt(48)))
	require.Equal(t, actor.ActorID, validated.ValidatedBy)
	require.NotNil(t, validated.ValidatedAt)

	err = f.manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		require.True(t, snap.StockItem(item.ID).Quantity.Equal(decimal.NewFromInt(4)))

		movements := snap.MovementsFor(item.ID)
		require.Len(t, movements, 2)
		consume := movements[1]
		require.Equal(t, ledger.MovementConsume, consume.Kind)
		require.True(t, consume.Delta.Equal(decimal.NewFromInt(-6)))
		require.True(t, consume.StockBefore.Equal(decimal.NewFromInt(10)))
		require.Equal(t, sale.ID, consume.CausedBy)

		require.Len(t, snap.Reports.Revenue, 1)
		require.True(t, snap.Reports.Revenue[0].Amount.Equal(decimal.NewFromInt(60)))
		require.Len(t, snap.Reports.Profit, 1)
		require.True(t, snap.Reports.Profit[0].Amount.Equal(decimal.NewFromInt(48)))

		require.Equal(t, shared.ActionSaleComplete, snap.ActionLog[0].Action)
		return nil
	})
	require.NoError(t, err)
}

func TestValidateUsesCurrentCostNotRecipeTimeCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	item, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	newCost := decimal.NewFromInt(5)
	_, err := f.stock.UpdateItem(ctx, actor, item.ID, stock.UpdateItemInput{Cost: &newCost})
	require.NoError(t, err)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 1})
	require.NoError(t, err)

	validated, err := f.sales.Validate(ctx, actor, sale.ID)
	require.NoError(t, err)
	require.True(t, validated.CostTotal.Equal(decimal.NewFromInt(10)))
	require.True(t, validated.Profit.Equal(decimal.NewFromInt(10)))
}

func TestValidateExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	item, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.sales.Validate(ctx, actor, sale.ID)
	require.NoError(t, err)

	_, err = f.sales.Validate(ctx, actor, sale.ID)
	require.True(t, errors.Is(err, shared.ErrInvalidState))

	err = f.manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		// The rejected replay must not deduct again.
		require.True(t, snap.StockItem(item.ID).Quantity.Equal(decimal.NewFromInt(8)))
		require.Len(t, snap.Reports.Revenue, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestValidateInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	item, recipe := f.seedRecipe(t, 5, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = f.sales.Validate(ctx, actor, sale.ID)
	var insufficient *shared.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	require.True(t, insufficient.Required.Equal(decimal.NewFromInt(6)))
	require.True(t, insufficient.Available.Equal(decimal.NewFromInt(5)))

	err = f.manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		require.True(t, snap.StockItem(item.ID).Quantity.Equal(decimal.NewFromInt(5)))
		require.Equal(t, ledger.SalePending, snap.Sale(sale.ID).Status)
		require.Empty(t, snap.Reports.Revenue)
		return nil
	})
	require.NoError(t, err)
}

func TestValidateFailsWhenIngredientWasDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	item, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.stock.DeleteItem(ctx, actor, item.ID))

	// A deleted ingredient fails the sale rather than being costed at zero.
	_, err = f.sales.Validate(ctx, actor, sale.ID)
	require.True(t, errors.Is(err, shared.ErrNotFound))

	err = f.manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		require.Equal(t, ledger.SalePending, snap.Sale(sale.ID).Status)
		require.Empty(t, snap.Reports.Revenue)
		return nil
	})
	require.NoError(t, err)
}

func TestValidateFailsWhenRecipeWasDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()
	_, recipe := f.seedRecipe(t, 10, 2, 2, 20)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipe.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.recipes.Delete(ctx, actor, recipe.ID))

	_, err = f.sales.Validate(ctx, actor, sale.ID)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestValidateSumsRepeatedIngredientBeforeDeducting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testActor()

	item, err := f.stock.AddItem(ctx, actor, stock.AddItemInput{
		Name:     "Flour",
		Quantity: decimal.NewFromInt(3),
		Unit:     "kg",
		Cost:     decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	// Recipes created today reject duplicate ingredient lines, but older
	// snapshots may still carry them. Each line alone fits within the 3 kg
	// balance; together they draw 4 kg. The sufficiency check must compare
	// the combined draw, not each line in isolation.
	var recipeID string
	err = f.manager.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe := ledger.Recipe{
			ID:    ledger.NewID(),
			Name:  "Double Flour",
			Price: decimal.NewFromInt(9),
			Ingredients: []ledger.Ingredient{
				{StockItemID: item.ID, Quantity: decimal.NewFromInt(2)},
				{StockItemID: item.ID, Quantity: decimal.NewFromInt(2)},
			},
			Category:  "other",
			CreatedBy: actor.ActorID,
			CreatedAt: time.Now().UTC(),
		}
		snap.Recipes = append(snap.Recipes, recipe)
		recipeID = recipe.ID
		return nil
	})
	require.NoError(t, err)

	sale, err := f.sales.Create(ctx, actor, CreateInput{RecipeID: recipeID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.sales.Validate(ctx, actor, sale.ID)
	var short *shared.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Equal(t, "Flour", short.Item)
	require.True(t, short.Required.Equal(decimal.NewFromInt(4)))
	require.True(t, short.Available.Equal(decimal.NewFromInt(3)))

	err = f.manager.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		stored := snap.StockItem(item.ID)
		require.True(t, stored.Quantity.Equal(decimal.NewFromInt(3)))
		require.Len(t, snap.MovementsFor(item.ID), 1)
		require.Equal(t, ledger.SalePending, snap.Sale(sale.ID).Status)
		require.Empty(t, snap.Reports.Revenue)
		return nil
	})
	require.NoError(t, err)
}
