package orders

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

// Service drives the purchase order state machine.
type Service struct {
	store  LedgerPort
	logger *slog.Logger
}

// NewService builds the order service.
func NewService(store LedgerPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// LineInput is one supplier product on a new order.
type LineInput struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateInput describes a new purchase order.
type CreateInput struct {
	Supplier string
	Lines    []LineInput
}

func validateLine(line LineInput) error {
	if line.Name == "" {
		return fmt.Errorf("orders: line item name required: %w", shared.ErrValidation)
	}
	if !line.Quantity.IsPositive() {
		return fmt.Errorf("orders: line item %q quantity must be > 0: %w", line.Name, shared.ErrValidation)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("orders: line item %q unit price must be >= 0: %w", line.Name, shared.ErrValidation)
	}
	return nil
}

// Create persists a pending order with its computed total.
func (s *Service) Create(ctx context.Context, actor shared.Identity, input CreateInput) (ledger.Order, error) {
	if input.Supplier == "" {
		return ledger.Order{}, fmt.Errorf("orders: supplier required: %w", shared.ErrValidation)
	}
	if len(input.Lines) == 0 {
		return ledger.Order{}, fmt.Errorf("orders: at least one line item required: %w", shared.ErrValidation)
	}
	total := decimal.Zero
	lines := make([]ledger.OrderLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		if err := validateLine(line); err != nil {
			return ledger.Order{}, err
		}
		lines = append(lines, ledger.OrderLine{Name: line.Name, Quantity: line.Quantity, UnitPrice: line.UnitPrice})
		total = total.Add(line.Quantity.Mul(line.UnitPrice))
	}

	order := ledger.Order{
		ID:          ledger.NewID(),
		Supplier:    input.Supplier,
		Lines:       lines,
		TotalAmount: total,
		Status:      ledger.OrderPending,
		CreatedBy:   actor.ActorID,
		CreatedAt:   time.Now().UTC(),
	}
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		snap.Orders = append(snap.Orders, order)
		snap.RecordAction(ledger.NewAction(actor, shared.ActionOrderAdd, map[string]any{
			"orderId":  order.ID,
			"supplier": order.Supplier,
			"lines":    summarizeLines(order.Lines),
			"total":    order.TotalAmount,
		}))
		return nil
	})
	if err != nil {
		return ledger.Order{}, err
	}
	return order, nil
}

// Validate marks the goods as received: every line credits its stock item,
// creating the item at zero quantity when the supplier product is new. One
// expense entry covers the order total. Everything commits atomically; a bad
// line leaves the order and all stock untouched.
func (s *Service) Validate(ctx context.Context, actor shared.Identity, orderID string) (ledger.Order, error) {
	var validated ledger.Order
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		order := snap.Order(orderID)
		if order == nil {
			return fmt.Errorf("orders: order %s: %w", orderID, shared.ErrNotFound)
		}
		if order.Status != ledger.OrderPending {
			return fmt.Errorf("orders: order %s is %s: %w", orderID, order.Status, shared.ErrInvalidState)
		}
		now := time.Now().UTC()
		lineSummaries := make([]map[string]any, 0, len(order.Lines))
		for _, line := range order.Lines {
			if err := validateLine(LineInput(line)); err != nil {
				return err
			}
			item := snap.StockItemByName(line.Name)
			if item == nil {
				// Unknown supplier products grow the catalog rather than fail.
				snap.Stock = append(snap.Stock, ledger.StockItem{
					ID:               ledger.NewID(),
					Name:             line.Name,
					Quantity:         decimal.Zero,
					Unit:             "unit",
					PurchaseUnitCost: line.UnitPrice,
					AlertThreshold:   decimal.NewFromInt(5),
					Category:         "new",
					AddedBy:          actor.ActorID,
					AddedAt:          now,
				})
				item = snap.StockItemByName(line.Name)
			}
			before := item.Quantity
			item.Quantity = item.Quantity.Add(line.Quantity)
			snap.AppendMovement(ledger.Movement{
				ID:          ledger.NewID(),
				StockItemID: item.ID,
				Kind:        ledger.MovementRestock,
				Delta:       line.Quantity,
				StockBefore: before,
				At:          now,
				CausedBy:    order.ID,
				ActorID:     actor.ActorID,
			})
			lineSummaries = append(lineSummaries, map[string]any{
				"name":       line.Name,
				"quantity":   line.Quantity,
				"unitPrice":  line.UnitPrice,
				"stockAfter": item.Quantity,
			})
		}
		snap.Reports.Expenses = append(snap.Reports.Expenses, ledger.ReportEntry{
			ID:        ledger.NewID(),
			Kind:      ledger.ReportExpense,
			RelatedID: order.ID,
			Amount:    order.TotalAmount,
			At:        now,
		})
		order.Status = ledger.OrderValidated
		order.ValidatedBy = actor.ActorID
		order.ValidatedAt = &now
		snap.RecordAction(ledger.NewAction(actor, shared.ActionOrderValidate, map[string]any{
			"orderId":  order.ID,
			"supplier": order.Supplier,
			"lines":    lineSummaries,
			"total":    order.TotalAmount,
		}))
		validated = *order
		return nil
	})
	if err != nil {
		return ledger.Order{}, err
	}
	return validated, nil
}

// Cancel closes a pending order without any stock effect.
func (s *Service) Cancel(ctx context.Context, actor shared.Identity, orderID string) (ledger.Order, error) {
	var cancelled ledger.Order
	err := s.store.WithTenantTx(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		order := snap.Order(orderID)
		if order == nil {
			return fmt.Errorf("orders: order %s: %w", orderID, shared.ErrNotFound)
		}
		if order.Status != ledger.OrderPending {
			return fmt.Errorf("orders: order %s is %s: %w", orderID, order.Status, shared.ErrInvalidState)
		}
		now := time.Now().UTC()
		order.Status = ledger.OrderCancelled
		order.CancelledBy = actor.ActorID
		order.CancelledAt = &now
		snap.RecordAction(ledger.NewAction(actor, shared.ActionOrderCancel, map[string]any{
			"orderId":  order.ID,
			"supplier": order.Supplier,
			"reason":   "manual cancellation",
		}))
		cancelled = *order
		return nil
	})
	if err != nil {
		return ledger.Order{}, err
	}
	return cancelled, nil
}

// List returns the tenant's orders.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]ledger.Order, error) {
	out := []ledger.Order{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		out = append(out, snap.Orders...)
		return nil
	})
	return out, err
}

func summarizeLines(lines []ledger.OrderLine) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		out = append(out, map[string]any{
			"name":      line.Name,
			"quantity":  line.Quantity,
			"unitPrice": line.UnitPrice,
		})
	}
	return out
}
