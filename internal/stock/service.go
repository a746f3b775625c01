package stock

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

// Service manages the stock catalog and its movement ledger.
type Service struct {
	store  LedgerPort
	logger *slog.Logger
}

// NewService builds the stock service.
func NewService(store LedgerPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

var defaultThreshold = decimal.NewFromInt(5)

// AddItemInput describes a manual catalog addition. Quantity is expressed in
// the declared unit and normalized before it reaches the ledger.
type AddItemInput struct {
	Name           string
	Quantity       decimal.Decimal
	Unit           string
	Cost           decimal.Decimal
	AlertThreshold *decimal.Decimal
	Category       string
}

// UpdateItemInput is an explicit patch; nil fields stay untouched. A quantity
// expressed in a non-canonical unit must bring its Unit along.
type UpdateItemInput struct {
	Name           *string
	Quantity       *decimal.Decimal
	Unit           *string
	Cost           *decimal.Decimal
	AlertThreshold *decimal.Decimal
	Category       *string
}

// AddItem creates a stock item, its opening restock movement, the matching
// expense entry and the audit record, all in one transaction.
func (s *Service) AddItem(ctx context.Context, actor shared.Identity, input AddItemInput) (ledger.StockItem, error) {
	if input.Name == "" {
		return ledger.StockItem{}, fmt.Errorf("stock: name required: %w", shared.ErrValidation)
	}
	if input.Quantity.IsNegative() {
		return ledger.StockItem{}, fmt.Errorf("stock: quantity must be >= 0: %w", shared.ErrValidation)
	}
	if input.Cost.IsNegative() {
		return ledger.StockItem{}, fmt.Errorf("stock: purchase cost must be >= 0: %w", shared.ErrValidation)
	}
	qty, unit, err := NormalizeQuantity(input.Quantity, input.Unit)
	if err != nil {
		return ledger.StockItem{}, err
	}
	threshold := defaultThreshold
	if input.AlertThreshold != nil {
		if input.AlertThreshold.IsNegative() {
			return ledger.StockItem{}, fmt.Errorf("stock: alert threshold must be >= 0: %w", shared.ErrValidation)
		}
		threshold = *input.AlertThreshold
	}
	category := input.Category
	if category == "" {
		category = "other"
	}

	now := time.Now().UTC()
	item := ledger.StockItem{
		ID:               ledger.NewID(),
		Name:             input.Name,
		Quantity:         qty,
		Unit:             unit,
		PurchaseUnitCost: input.Cost,
		AlertThreshold:   threshold,
		Category:         category,
		AddedBy:          actor.ActorID,
		AddedAt:          now,
	}

	err = s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		snap.Stock = append(snap.Stock, item)
		snap.AppendMovement(ledger.Movement{
			ID:          ledger.NewID(),
			StockItemID: item.ID,
			Kind:        ledger.MovementRestock,
			Delta:       qty,
			StockBefore: decimal.Zero,
			At:          now,
			CausedBy:    ledger.CausedByManual,
			ActorID:     actor.ActorID,
		})
		snap.Reports.Expenses = append(snap.Reports.Expenses, ledger.ReportEntry{
			ID:        ledger.NewID(),
			Kind:      ledger.ReportExpense,
			RelatedID: item.ID,
			Amount:    input.Cost.Mul(qty),
			At:        now,
		})
		snap.RecordAction(ledger.NewAction(actor, shared.ActionStockAdd, map[string]any{
			"productId": item.ID,
			"name":      item.Name,
			"quantity":  item.Quantity,
			"unit":      item.Unit,
			"cost":      item.PurchaseUnitCost,
			"threshold": item.AlertThreshold,
			"category":  item.Category,
		}))
		return nil
	})
	if err != nil {
		return ledger.StockItem{}, err
	}
	return item, nil
}

// UpdateItem applies a validated patch. A quantity or cost change appends an
// adjust movement recording the before and after values.
func (s *Service) UpdateItem(ctx context.Context, actor shared.Identity, itemID string, patch UpdateItemInput) (ledger.StockItem, error) {
	if patch.Unit != nil && patch.Quantity == nil {
		return ledger.StockItem{}, fmt.Errorf("stock: unit change requires a quantity: %w", shared.ErrValidation)
	}
	var updated ledger.StockItem
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		item := snap.StockItem(itemID)
		if item == nil {
			return fmt.Errorf("stock: item %s: %w", itemID, shared.ErrNotFound)
		}

		prevQty := item.Quantity
		prevCost := item.PurchaseUnitCost

		if patch.Name != nil {
			if *patch.Name == "" {
				return fmt.Errorf("stock: name required: %w", shared.ErrValidation)
			}
			item.Name = *patch.Name
		}
		if patch.Quantity != nil {
			if patch.Quantity.IsNegative() {
				return fmt.Errorf("stock: quantity must be >= 0: %w", shared.ErrValidation)
			}
			qty := *patch.Quantity
			if patch.Unit != nil {
				if err := CheckCompatible(*patch.Unit, item.Unit); err != nil {
					return err
				}
				normalized, unit, err := NormalizeQuantity(qty, *patch.Unit)
				if err != nil {
					return err
				}
				qty = normalized
				item.Unit = unit
			}
			item.Quantity = qty
		}
		if patch.Cost != nil {
			if patch.Cost.IsNegative() {
				return fmt.Errorf("stock: purchase cost must be >= 0: %w", shared.ErrValidation)
			}
			item.PurchaseUnitCost = *patch.Cost
		}
		if patch.AlertThreshold != nil {
			if patch.AlertThreshold.IsNegative() {
				return fmt.Errorf("stock: alert threshold must be >= 0: %w", shared.ErrValidation)
			}
			item.AlertThreshold = *patch.AlertThreshold
		}
		if patch.Category != nil {
			item.Category = *patch.Category
		}

		if !item.Quantity.Equal(prevQty) || !item.PurchaseUnitCost.Equal(prevCost) {
			now := time.Now().UTC()
			snap.AppendMovement(ledger.Movement{
				ID:          ledger.NewID(),
				StockItemID: item.ID,
				Kind:        ledger.MovementAdjust,
				Delta:       item.Quantity.Sub(prevQty),
				StockBefore: prevQty,
				At:          now,
				CausedBy:    ledger.CausedByManual,
				ActorID:     actor.ActorID,
			})
			snap.RecordAction(ledger.NewAction(actor, shared.ActionStockUpdate, map[string]any{
				"productId":      item.ID,
				"name":           item.Name,
				"quantityBefore": prevQty,
				"quantityAfter":  item.Quantity,
				"costBefore":     prevCost,
				"costAfter":      item.PurchaseUnitCost,
			}))
		}
		updated = *item
		return nil
	})
	if err != nil {
		return ledger.StockItem{}, err
	}
	return updated, nil
}

// DeleteItem removes an item from the active set. Its movement history is
// retained and closed out with a delete movement of the last quantity.
func (s *Service) DeleteItem(ctx context.Context, actor shared.Identity, itemID string) error {
	return s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		item := snap.StockItem(itemID)
		if item == nil {
			return fmt.Errorf("stock: item %s: %w", itemID, shared.ErrNotFound)
		}
		lastQty := item.Quantity
		name := item.Name
		snap.RemoveStockItem(itemID)
		now := time.Now().UTC()
		snap.AppendMovement(ledger.Movement{
			ID:          ledger.NewID(),
			StockItemID: itemID,
			Kind:        ledger.MovementDelete,
			Delta:       lastQty.Neg(),
			StockBefore: lastQty,
			At:          now,
			CausedBy:    ledger.CausedByManual,
			ActorID:     actor.ActorID,
		})
		snap.RecordAction(ledger.NewAction(actor, shared.ActionStockDelete, map[string]any{
			"productId":    itemID,
			"name":         name,
			"lastQuantity": lastQty,
		}))
		return nil
	})
}

// List returns the tenant's active catalog.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]ledger.StockItem, error) {
	items := []ledger.StockItem{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		items = append(items, snap.Stock...)
		return nil
	})
	return items, err
}

// ListAlerts returns active items at or below their alert threshold.
func (s *Service) ListAlerts(ctx context.Context, actor shared.Identity) ([]ledger.StockItem, error) {
	alerts := []ledger.StockItem{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		for _, item := range snap.Stock {
			if item.Quantity.LessThanOrEqual(item.AlertThreshold) {
				alerts = append(alerts, item)
			}
		}
		return nil
	})
	return alerts, err
}
