package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// LedgerPort abstracts the tenant transaction scope used by the service.
type LedgerPort interface {
	WithTenantTx(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
	View(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
}

// Service drives the sale state machine.
type Service struct {
	store  LedgerPort
	logger *slog.Logger
}

// NewService builds the sale service.
func NewService(store LedgerPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateInput describes a new pending sale.
type CreateInput struct {
	RecipeID string
	Quantity int64
	Client   string
}

// Create registers a pending sale priced from the recipe.
func (s *Service) Create(ctx context.Context, actor shared.Identity, input CreateInput) (ledger.Sale, error) {
	if input.RecipeID == "" {
		return ledger.Sale{}, fmt.Errorf("sales: recipe id required: %w", shared.ErrValidation)
	}
	if input.Quantity <= 0 {
		return ledger.Sale{}, fmt.Errorf("sales: quantity must be >= 1: %w", shared.ErrValidation)
	}
	client := input.Client
	if client == "" {
		client = "anonymous"
	}
	var created ledger.Sale
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		recipe := snap.Recipe(input.RecipeID)
		if recipe == nil {
			return fmt.Errorf("sales: recipe %s: %w", input.RecipeID, shared.ErrNotFound)
		}
		sale := ledger.Sale{
			ID:         ledger.NewID(),
			RecipeID:   recipe.ID,
			RecipeName: recipe.Name,
			Quantity:   input.Quantity,
			TotalPrice: recipe.Price.Mul(decimal.NewFromInt(input.Quantity)),
			Status:     ledger.SalePending,
			Client:     client,
			CreatedBy:  actor.ActorID,
			CreatedAt:  time.Now().UTC(),
		}
		snap.Sales = append(snap.Sales, sale)
		snap.RecordAction(ledger.NewAction(actor, shared.ActionSaleCreate, map[string]any{
			"saleId":     sale.ID,
			"recipeId":   sale.RecipeID,
			"recipeName": sale.RecipeName,
			"quantity":   sale.Quantity,
			"totalPrice": sale.TotalPrice,
			"client":     sale.Client,
		}))
		created = sale
		return nil
	})
	if err != nil {
		return ledger.Sale{}, err
	}
	return created, nil
}

// Validate irreversibly completes a sale: every ingredient of the recipe is
// checked for sufficient stock, then deducted scaled by the sale quantity.
// Cost uses the purchase cost current at validation time, not at recipe
// creation; revenue and profit entries are emitted in the same transaction.
func (s *Service) Validate(ctx context.Context, actor shared.Identity, saleID string) (ledger.Sale, error) {
	var validated ledger.Sale
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		sale := snap.Sale(saleID)
		if sale == nil {
			return fmt.Errorf("sales: sale %s: %w", saleID, shared.ErrNotFound)
		}
		if sale.Status != ledger.SalePending {
			return fmt.Errorf("sales: sale %s is %s: %w", saleID, sale.Status, shared.ErrInvalidState)
		}
		recipe := snap.Recipe(sale.RecipeID)
		if recipe == nil {
			return fmt.Errorf("sales: recipe %s: %w", sale.RecipeID, shared.ErrNotFound)
		}

		saleQty := decimal.NewFromInt(sale.Quantity)
		// Check every ingredient before touching any stock. A recipe whose
		// ingredient was deleted from the catalog fails the sale instead of
		// being costed at zero. Requirements are summed per stock item, so a
		// recipe listing the same item twice is checked against the combined
		// draw and can never push the balance negative.
		required := make(map[string]decimal.Decimal, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			item := snap.StockItem(ing.StockItemID)
			if item == nil {
				return fmt.Errorf("sales: ingredient %s: %w", ing.StockItemID, shared.ErrNotFound)
			}
			total := required[ing.StockItemID].Add(ing.Quantity.Mul(saleQty))
			required[ing.StockItemID] = total
			if item.Quantity.LessThan(total) {
				return &shared.InsufficientStockError{Item: item.Name, Required: total, Available: item.Quantity}
			}
		}

		now := time.Now().UTC()
		costTotal := decimal.Zero
		for _, ing := range recipe.Ingredients {
			item := snap.StockItem(ing.StockItemID)
			need := ing.Quantity.Mul(saleQty)
			costTotal = costTotal.Add(item.PurchaseUnitCost.Mul(need))
			before := item.Quantity
			item.Quantity = item.Quantity.Sub(need)
			snap.AppendMovement(ledger.Movement{
				ID:          ledger.NewID(),
				StockItemID: item.ID,
				Kind:        ledger.MovementConsume,
				Delta:       need.Neg(),
				StockBefore: before,
				At:          now,
				CausedBy:    sale.ID,
				ActorID:     actor.ActorID,
			})
		}

		profit := sale.TotalPrice.Sub(costTotal)
		sale.Status = ledger.SaleValidated
		sale.CostTotal = costTotal
		sale.Profit = profit
		sale.ValidatedBy = actor.ActorID
		sale.ValidatedAt = &now

		snap.Reports.Revenue = append(snap.Reports.Revenue, ledger.ReportEntry{
			ID:        ledger.NewID(),
			Kind:      ledger.ReportRevenue,
			RelatedID: sale.ID,
			Amount:    sale.TotalPrice,
			At:        now,
		})
		snap.Reports.Profit = append(snap.Reports.Profit, ledger.ReportEntry{
			ID:        ledger.NewID(),
			Kind:      ledger.ReportProfit,
			RelatedID: sale.ID,
			Amount:    profit,
			At:        now,
		})
		snap.RecordAction(ledger.NewAction(actor, shared.ActionSaleComplete, map[string]any{
			"saleId":     sale.ID,
			"recipeId":   recipe.ID,
			"recipeName": recipe.Name,
			"quantity":   sale.Quantity,
			"totalPrice": sale.TotalPrice,
			"costTotal":  costTotal,
			"profit":     profit,
			"client":     sale.Client,
		}))
		validated = *sale
		return nil
	})
	if err != nil {
		return ledger.Sale{}, err
	}
	return validated, nil
}

// List returns the tenant's sales.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]ledger.Sale, error) {
	out := []ledger.Sale{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		out = append(out, snap.Sales...)
		return nil
	})
	return out, err
}
