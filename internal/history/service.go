package history

import (
	"context"
	"time"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// LedgerPort abstracts the read-only snapshot access used for projections.
type LedgerPort interface {
	View(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
}

// Service projects the append-only action log into human-readable history.
type Service struct {
	store LedgerPort
}

// NewService builds the history projection service.
func NewService(store LedgerPort) *Service {
	return &Service{store: store}
}

// Actor is the frozen attribution recorded with every entry.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Entry is one hydrated history row, most recent first.
type Entry struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	ActionType shared.ActionType `json:"actionType"`
	Actor      Actor             `json:"actor"`
	Details    map[string]any    `json:"details"`
}

// List returns the tenant's history, newest entries first. Hydration joins
// frozen details against the current catalog for display names; when the
// referenced entity was deleted later, the values frozen at write time stand.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]Entry, error) {
	entries := []Entry{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		for _, logged := range snap.ActionLog {
			entries = append(entries, hydrate(snap, logged))
		}
		return nil
	})
	return entries, err
}

func hydrate(snap *ledger.Snapshot, logged ledger.ActionLogEntry) Entry {
	entry := Entry{
		ID:         logged.ID,
		Timestamp:  logged.At,
		ActionType: logged.Action,
		Actor:      Actor{ID: logged.ActorID, Role: logged.ActorRole},
		Details:    cloneDetails(logged.Details),
	}
	switch logged.Action {
	case shared.ActionStockAdd, shared.ActionStockUpdate, shared.ActionStockDelete:
		hydrateStock(snap, entry.Details)
	case shared.ActionOrderAdd, shared.ActionOrderValidate, shared.ActionOrderCancel:
		hydrateOrder(snap, entry.Details)
	case shared.ActionRecipeAdd, shared.ActionRecipeUpdate, shared.ActionRecipeUseStock, shared.ActionRecipeDelete:
		hydrateRecipe(snap, entry.Details)
	case shared.ActionSaleCreate, shared.ActionSaleComplete:
		hydrateSale(snap, entry.Details)
	}
	return entry
}

// hydrateStock overlays the item's current name when it still exists.
func hydrateStock(snap *ledger.Snapshot, details map[string]any) {
	id, ok := details["productId"].(string)
	if !ok {
		return
	}
	if item := snap.StockItem(id); item != nil {
		details["name"] = item.Name
	}
}

// hydrateOrder overlays the order's current supplier and status.
func hydrateOrder(snap *ledger.Snapshot, details map[string]any) {
	id, ok := details["orderId"].(string)
	if !ok {
		return
	}
	if order := snap.Order(id); order != nil {
		details["supplier"] = order.Supplier
		details["status"] = order.Status
	}
}

// hydrateRecipe overlays the recipe's current name and price.
func hydrateRecipe(snap *ledger.Snapshot, details map[string]any) {
	id, ok := details["recipeId"].(string)
	if !ok {
		return
	}
	if recipe := snap.Recipe(id); recipe != nil {
		details["name"] = recipe.Name
		details["price"] = recipe.Price
	}
}

// hydrateSale overlays the recipe name via the sale's recipe reference.
func hydrateSale(snap *ledger.Snapshot, details map[string]any) {
	id, ok := details["saleId"].(string)
	if !ok {
		return
	}
	sale := snap.Sale(id)
	if sale == nil {
		return
	}
	details["status"] = sale.Status
	if recipe := snap.Recipe(sale.RecipeID); recipe != nil {
		details["recipeName"] = recipe.Name
	}
}

func cloneDetails(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
