package movements

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// LedgerPort abstracts the read-only snapshot access used for projections.
type LedgerPort interface {
	View(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
}

// Service projects the append-only movement ledger for reads.
type Service struct {
	store LedgerPort
}

// NewService builds the movement projection service.
func NewService(store LedgerPort) *Service {
	return &Service{store: store}
}

// Entry is one movement row enriched with the item's current display name.
// ItemName is empty when the item was since deleted; the movement itself is
// immutable and stays.
type Entry struct {
	ID          string              `json:"id"`
	StockItemID string              `json:"stockItemId"`
	ItemName    string              `json:"itemName,omitempty"`
	Kind        ledger.MovementKind `json:"kind"`
	Delta       decimal.Decimal     `json:"delta"`
	StockBefore decimal.Decimal     `json:"stockBefore"`
	At          time.Time           `json:"at"`
	CausedBy    string              `json:"causedBy"`
	ActorID     string              `json:"actorId"`
}

// List returns every movement of the tenant, newest first.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]Entry, error) {
	entries := []Entry{}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		entries = make([]Entry, 0, len(snap.Movements))
		for i := len(snap.Movements) - 1; i >= 0; i-- {
			m := snap.Movements[i]
			entry := Entry{
				ID:          m.ID,
				StockItemID: m.StockItemID,
				Kind:        m.Kind,
				Delta:       m.Delta,
				StockBefore: m.StockBefore,
				At:          m.At,
				CausedBy:    m.CausedBy,
				ActorID:     m.ActorID,
			}
			if item := snap.StockItem(m.StockItemID); item != nil {
				entry.ItemName = item.Name
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}
