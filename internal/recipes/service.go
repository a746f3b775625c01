package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
)

// LedgerPort abstracts the tenant transaction scope used by the service.
type LedgerPort interface {
	WithTenantTx(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
	View(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
}

// Service manages recipes and their stock consumption.
type Service struct {
	store  LedgerPort
	logger *slog.Logger
}

// NewService builds the recipe service.
func NewService(store LedgerPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// IngredientInput references a stock item and the quantity one portion
// consumes, in the declared unit.
type IngredientInput struct {
	StockItemID string
	Quantity    decimal.Decimal
	Unit        string
}

// AddInput describes a new recipe.
type AddInput struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Ingredients []IngredientInput
}

func (s *Service) buildRecipe(actor shared.Identity, snap *ledger.Snapshot, input AddInput) (ledger.Recipe, error) {
	if input.Name == "" {
		return ledger.Recipe{}, fmt.Errorf("recipes: name required: %w", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return ledger.Recipe{}, fmt.Errorf("recipes: price must be >= 0: %w", shared.ErrValidation)
	}
	ingredients, err := buildIngredients(snap, input.Ingredients)
	if err != nil {
		return ledger.Recipe{}, err
	}
	category := input.Category
	if category == "" {
		category = "other"
	}
	return ledger.Recipe{
		ID:          ledger.NewID(),
		Name:        input.Name,
		Price:       input.Price,
		Ingredients: ingredients,
		Category:    category,
		CreatedBy:   actor.ActorID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// buildIngredients validates and normalizes ingredient lines. Each stock
// item may appear at most once so that sufficiency checks can compare a
// single required quantity against the item's balance.
func buildIngredients(snap *ledger.Snapshot, inputs []IngredientInput) ([]ledger.Ingredient, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("recipes: at least one ingredient required: %w", shared.ErrValidation)
	}
	seen := make(map[string]struct{}, len(inputs))
	ingredients := make([]ledger.Ingredient, 0, len(inputs))
	for _, ing := range inputs {
		if ing.StockItemID == "" {
			return nil, fmt.Errorf("recipes: ingredient stock item id required: %w", shared.ErrValidation)
		}
		if _, dup := seen[ing.StockItemID]; dup {
			return nil, fmt.Errorf("recipes: duplicate ingredient %s: %w", ing.StockItemID, shared.ErrValidation)
		}
		seen[ing.StockItemID] = struct{}{}
		if !ing.Quantity.IsPositive() {
			return nil, fmt.Errorf("recipes: ingredient quantity must be > 0: %w", shared.ErrValidation)
		}
		qty := ing.Quantity
		if item := snap.StockItem(ing.StockItemID); item != nil && ing.Unit != "" {
			if err := stock.CheckCompatible(ing.Unit, item.Unit); err != nil {
				return nil, err
			}
		}
		if ing.Unit != "" {
			normalized, _, err := stock.NormalizeQuantity(qty, ing.Unit)
			if err != nil {
				return nil, err
			}
			qty = normalized
		}
		ingredients = append(ingredients, ledger.Ingredient{StockItemID: ing.StockItemID, Quantity: qty})
	}
	return ingredients, nil
}

// Add creates a recipe without touching stock.
func (s *Service) Add(ctx context.Context, actor shared.Identity, input AddInput) (ledger.Recipe, error) {
	var created ledger.Recipe
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe, err := s.buildRecipe(actor, snap, input)
		if err != nil {
			return err
		}
		snap.Recipes = append(snap.Recipes, recipe)
		snap.RecordAction(ledger.NewAction(actor, shared.ActionRecipeAdd, map[string]any{
			"recipeId":    recipe.ID,
			"name":        recipe.Name,
			"price":       recipe.Price,
			"ingredients": summarizeIngredients(snap, recipe.Ingredients),
		}))
		created = recipe
		return nil
	})
	if err != nil {
		return ledger.Recipe{}, err
	}
	return created, nil
}

// UpdateInput is a partial recipe patch. Nil fields keep the stored value;
// a non-nil Ingredients slice replaces the ingredient list wholesale.
type UpdateInput struct {
	Name        *string
	Price       *decimal.Decimal
	Category    *string
	Ingredients []IngredientInput
}

// Update edits a recipe in place. Stock is never touched; already validated
// sales keep the cost and profit frozen at their validation time.
func (s *Service) Update(ctx context.Context, actor shared.Identity, recipeID string, input UpdateInput) (ledger.Recipe, error) {
	var updated ledger.Recipe
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe := snap.Recipe(recipeID)
		if recipe == nil {
			return fmt.Errorf("recipes: recipe %s: %w", recipeID, shared.ErrNotFound)
		}
		changes := map[string]any{}
		if input.Name != nil {
			if *input.Name == "" {
				return fmt.Errorf("recipes: name required: %w", shared.ErrValidation)
			}
			recipe.Name = *input.Name
			changes["name"] = recipe.Name
		}
		if input.Price != nil {
			if input.Price.IsNegative() {
				return fmt.Errorf("recipes: price must be >= 0: %w", shared.ErrValidation)
			}
			recipe.Price = *input.Price
			changes["price"] = recipe.Price
		}
		if input.Category != nil {
			recipe.Category = *input.Category
			changes["category"] = recipe.Category
		}
		if input.Ingredients != nil {
			ingredients, err := buildIngredients(snap, input.Ingredients)
			if err != nil {
				return err
			}
			recipe.Ingredients = ingredients
			changes["ingredients"] = summarizeIngredients(snap, ingredients)
		}
		if len(changes) > 0 {
			changes["recipeId"] = recipe.ID
			if _, ok := changes["name"]; !ok {
				changes["name"] = recipe.Name
			}
			snap.RecordAction(ledger.NewAction(actor, shared.ActionRecipeUpdate, changes))
		}
		updated = *recipe
		return nil
	})
	if err != nil {
		return ledger.Recipe{}, err
	}
	return updated, nil
}

// AddWithStockConsumption creates a recipe and immediately consumes one
// portion of each ingredient. Every ingredient is checked for sufficient
// stock before any deduction happens; a short ingredient fails the whole
// operation with no stock touched.
func (s *Service) AddWithStockConsumption(ctx context.Context, actor shared.Identity, input AddInput) (ledger.Recipe, error) {
	var created ledger.Recipe
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe, err := s.buildRecipe(actor, snap, input)
		if err != nil {
			return err
		}
		for _, ing := range recipe.Ingredients {
			item := snap.StockItem(ing.StockItemID)
			if item == nil {
				return fmt.Errorf("recipes: ingredient %s: %w", ing.StockItemID, shared.ErrNotFound)
			}
			if item.Quantity.LessThan(ing.Quantity) {
				return &shared.InsufficientStockError{Item: item.Name, Required: ing.Quantity, Available: item.Quantity}
			}
		}
		now := time.Now().UTC()
		for _, ing := range recipe.Ingredients {
			item := snap.StockItem(ing.StockItemID)
			before := item.Quantity
			item.Quantity = item.Quantity.Sub(ing.Quantity)
			snap.AppendMovement(ledger.Movement{
				ID:          ledger.NewID(),
				StockItemID: item.ID,
				Kind:        ledger.MovementConsume,
				Delta:       ing.Quantity.Neg(),
				StockBefore: before,
				At:          now,
				CausedBy:    recipe.ID,
				ActorID:     actor.ActorID,
			})
		}
		snap.Recipes = append(snap.Recipes, recipe)
		snap.RecordAction(ledger.NewAction(actor, shared.ActionRecipeUseStock, map[string]any{
			"recipeId":    recipe.ID,
			"name":        recipe.Name,
			"price":       recipe.Price,
			"ingredients": summarizeIngredients(snap, recipe.Ingredients),
		}))
		created = recipe
		return nil
	})
	if err != nil {
		return ledger.Recipe{}, err
	}
	return created, nil
}

// Delete removes a recipe. Past sales keep their frozen cost and profit.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, recipeID string) error {
	return s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe := snap.Recipe(recipeID)
		if recipe == nil {
			return fmt.Errorf("recipes: recipe %s: %w", recipeID, shared.ErrNotFound)
		}
		name := recipe.Name
		snap.RemoveRecipe(recipeID)
		snap.RecordAction(ledger.NewAction(actor, shared.ActionRecipeDelete, map[string]any{
			"recipeId": recipeID,
			"name":     name,
		}))
		return nil
	})
}

// List returns the tenant's recipes.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]ledger.Recipe, error) {
	out := []ledger.Recipe{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		out = append(out, snap.Recipes...)
		return nil
	})
	return out, err
}

func summarizeIngredients(snap *ledger.Snapshot, ingredients []ledger.Ingredient) []map[string]any {
	out := make([]map[string]any, 0, len(ingredients))
	for _, ing := range ingredients {
		name := ing.StockItemID
		if item := snap.StockItem(ing.StockItemID); item != nil {
			name = item.Name
		}
		out = append(out, map[string]any{
			"stockItemId": ing.StockItemID,
			"name":        name,
			"quantity":    ing.Quantity,
		})
	}
	return out
}
