package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// MovementKind enumerates the reasons a stock quantity changed.
type MovementKind string

const (
	// MovementRestock represents goods received or a manual add.
	MovementRestock MovementKind = "restock"
	// MovementConsume represents ingredients used by a recipe or sale.
	MovementConsume MovementKind = "consume"
	// MovementAdjust represents a manual quantity or cost correction.
	MovementAdjust MovementKind = "adjust"
	// MovementDelete represents removal of an item from the active set.
	MovementDelete MovementKind = "delete"
)

// CausedByManual marks movements not tied to an order, sale or recipe.
const CausedByManual = "manual"

// OrderStatus models the purchase order state machine.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderValidated OrderStatus = "validated"
	OrderCancelled OrderStatus = "cancelled"
)

// SaleStatus models the sale state machine. There is no cancellation path.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleValidated SaleStatus = "validated"
)

// ReportKind enumerates financial report entry kinds.
type ReportKind string

const (
	ReportExpense ReportKind = "expense"
	ReportRevenue ReportKind = "revenue"
	ReportProfit  ReportKind = "profit"
)

// StockItem is one perishable or consumable product in the active catalog.
// Quantity is always stored in the canonical unit (kg, l or unit).
type StockItem struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	PurchaseUnitCost decimal.Decimal `json:"purchaseUnitCost"`
	AlertThreshold   decimal.Decimal `json:"alertThreshold"`
	Category         string          `json:"category"`
	AddedBy          string          `json:"addedBy"`
	AddedAt          time.Time       `json:"addedAt"`
}

// Movement is one append-only record of a stock quantity change.
// Movements are never edited or deleted, even when their item is.
type Movement struct {
	ID          string          `json:"id"`
	StockItemID string          `json:"stockItemId"`
	Kind        MovementKind    `json:"kind"`
	Delta       decimal.Decimal `json:"delta"`
	StockBefore decimal.Decimal `json:"stockBefore"`
	At          time.Time       `json:"at"`
	CausedBy    string          `json:"causedBy"`
	ActorID     string          `json:"actorId"`
}

// Ingredient references a stock item and the quantity one portion consumes,
// expressed in the item's canonical unit.
type Ingredient struct {
	StockItemID string          `json:"stockItemId"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Recipe defines a sellable dish and the stock it consumes.
type Recipe struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Ingredients []Ingredient    `json:"ingredients"`
	Category    string          `json:"category"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderLine is one supplier product on a purchase order.
type OrderLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order is a purchase order for goods from a supplier.
type Order struct {
	ID          string          `json:"id"`
	Supplier    string          `json:"supplier"`
	Lines       []OrderLine     `json:"lineItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	ValidatedBy string          `json:"validatedBy,omitempty"`
	ValidatedAt *time.Time      `json:"validatedAt,omitempty"`
	CancelledBy string          `json:"cancelledBy,omitempty"`
	CancelledAt *time.Time      `json:"cancelledAt,omitempty"`
}

// Sale records one sale of a recipe. Cost and profit freeze at validation.
type Sale struct {
	ID          string          `json:"id"`
	RecipeID    string          `json:"recipeId"`
	RecipeName  string          `json:"recipeName"`
	Quantity    int64           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Status      SaleStatus      `json:"status"`
	CostTotal   decimal.Decimal `json:"costTotal"`
	Profit      decimal.Decimal `json:"profit"`
	Client      string          `json:"client"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	ValidatedBy string          `json:"validatedBy,omitempty"`
	ValidatedAt *time.Time      `json:"validatedAt,omitempty"`
}

// ReportEntry is one immutable financial record emitted by a validation event.
type ReportEntry struct {
	ID        string          `json:"id"`
	Kind      ReportKind      `json:"kind"`
	RelatedID string          `json:"relatedId"`
	Amount    decimal.Decimal `json:"amount"`
	At        time.Time       `json:"at"`
}

// Reports groups the append-only financial entries by kind.
type Reports struct {
	Expenses []ReportEntry `json:"expenses"`
	Revenue  []ReportEntry `json:"revenue"`
	Profit   []ReportEntry `json:"profit"`
}

// ActionLogEntry is one user-attributed audit record. The Details map freezes
// the affected fields at write time so history reads never call back into the
// identity layer.
type ActionLogEntry struct {
	ID        string            `json:"id"`
	At        time.Time         `json:"at"`
	Action    shared.ActionType `json:"actionType"`
	ActorID   string            `json:"actorId"`
	ActorRole string            `json:"actorRole"`
	Details   map[string]any    `json:"details"`
}

// Snapshot is the full mutable state of one tenant. It is loaded, mutated and
// persisted as a single document; entities inherit the tenant partition from
// the document rather than carrying their own key.
type Snapshot struct {
	TenantKey string           `json:"tenantKey"`
	Stock     []StockItem      `json:"stock"`
	Orders    []Order          `json:"orders"`
	Recipes   []Recipe         `json:"recipes"`
	Sales     []Sale           `json:"sales"`
	Movements []Movement       `json:"movements"`
	Reports   Reports          `json:"reports"`
	ActionLog []ActionLogEntry `json:"actionLog"`
}

// NewSnapshot returns an empty snapshot for a tenant never seen before.
func NewSnapshot(tenantKey string) Snapshot {
	return Snapshot{TenantKey: tenantKey}
}

// StockItem finds an active item by id. Returns nil when absent.
func (s *Snapshot) StockItem(id string) *StockItem {
	for i := range s.Stock {
		if s.Stock[i].ID == id {
			return &s.Stock[i]
		}
	}
	return nil
}

// StockItemByName finds an active item by its supplier-facing name.
func (s *Snapshot) StockItemByName(name string) *StockItem {
	for i := range s.Stock {
		if s.Stock[i].Name == name {
			return &s.Stock[i]
		}
	}
	return nil
}

// RemoveStockItem drops an item from the active set. Its movements stay.
func (s *Snapshot) RemoveStockItem(id string) {
	for i := range s.Stock {
		if s.Stock[i].ID == id {
			s.Stock = append(s.Stock[:i], s.Stock[i+1:]...)
			return
		}
	}
}

// Order finds an order by id. Returns nil when absent.
func (s *Snapshot) Order(id string) *Order {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return &s.Orders[i]
		}
	}
	return nil
}

// Recipe finds a recipe by id. Returns nil when absent.
func (s *Snapshot) Recipe(id string) *Recipe {
	for i := range s.Recipes {
		if s.Recipes[i].ID == id {
			return &s.Recipes[i]
		}
	}
	return nil
}

// RemoveRecipe drops a recipe. Past sales keep their frozen cost and profit.
func (s *Snapshot) RemoveRecipe(id string) {
	for i := range s.Recipes {
		if s.Recipes[i].ID == id {
			s.Recipes = append(s.Recipes[:i], s.Recipes[i+1:]...)
			return
		}
	}
}

// Sale finds a sale by id. Returns nil when absent.
func (s *Snapshot) Sale(id string) *Sale {
	for i := range s.Sales {
		if s.Sales[i].ID == id {
			return &s.Sales[i]
		}
	}
	return nil
}

// AppendMovement records one quantity change in the append-only ledger.
func (s *Snapshot) AppendMovement(m Movement) {
	s.Movements = append(s.Movements, m)
}

// MovementsFor returns every movement recorded for a stock item, in order.
func (s *Snapshot) MovementsFor(stockItemID string) []Movement {
	var out []Movement
	for _, m := range s.Movements {
		if m.StockItemID == stockItemID {
			out = append(out, m)
		}
	}
	return out
}

// RecordAction prepends an audit entry so reads are most-recent-first.
func (s *Snapshot) RecordAction(e ActionLogEntry) {
	s.ActionLog = append([]ActionLogEntry{e}, s.ActionLog...)
}
