package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// LedgerPort abstracts the read-only snapshot access used by the aggregator.
type LedgerPort interface {
	View(ctx context.Context, tenantKey string, fn func(*ledger.Snapshot) error) error
}

// Service derives running financial totals from the append-only report
// entries. Totals are recomputed on every read and never stored, so they
// cannot drift from their inputs.
type Service struct {
	store LedgerPort
}

// NewService builds the report aggregator.
func NewService(store LedgerPort) *Service {
	return &Service{store: store}
}

// Summary is the fixed financial projection exposed to callers.
type Summary struct {
	Expenses      []ledger.ReportEntry `json:"expenses"`
	Revenue       []ledger.ReportEntry `json:"revenue"`
	Profit        []ledger.ReportEntry `json:"profit"`
	TotalExpenses decimal.Decimal      `json:"totalExpenses"`
	TotalRevenue  decimal.Decimal      `json:"totalRevenue"`
	NetProfit     decimal.Decimal      `json:"netProfit"`
}

// Summarize returns all report entries plus derived totals for a tenant.
func (s *Service) Summarize(ctx context.Context, actor shared.Identity) (Summary, error) {
	summary := Summary{
		TotalExpenses: decimal.Zero,
		TotalRevenue:  decimal.Zero,
		NetProfit:     decimal.Zero,
	}
	err := s.store.View(ctx, actor.TenantKey, func(snap *ledger.Snapshot) error {
		summary.Expenses = append(summary.Expenses, snap.Reports.Expenses...)
		summary.Revenue = append(summary.Revenue, snap.Reports.Revenue...)
		summary.Profit = append(summary.Profit, snap.Reports.Profit...)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	for _, e := range summary.Expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(e.Amount)
	}
	for _, r := range summary.Revenue {
		summary.TotalRevenue = summary.TotalRevenue.Add(r.Amount)
	}
	summary.NetProfit = summary.TotalRevenue.Sub(summary.TotalExpenses)
	return summary, nil
}
