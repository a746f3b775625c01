package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
)

// AlertScanner walks every tenant snapshot and reports items whose quantity
// sits at or below their alert threshold.
type AlertScanner struct {
	manager *ledger.Manager
	logger  *slog.Logger
}

// NewAlertScanner constructs the low-stock sweep handler.
func NewAlertScanner(manager *ledger.Manager, logger *slog.Logger) *AlertScanner {
	return &AlertScanner{manager: manager, logger: logger}
}

// Handle processes TaskStockAlertScan tasks. Tenants are scanned in parallel;
// a failing tenant is logged and does not abort the sweep.
func (s *AlertScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AlertScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tenants, err := s.manager.Tenants(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	var flagged atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, tenant := range tenants {
		tenant := tenant
		g.Go(func() error {
			err := s.manager.View(gctx, tenant, func(snap *ledger.Snapshot) error {
				for _, item := range snap.Stock {
					if item.Quantity.GreaterThan(item.AlertThreshold) {
						continue
					}
					flagged.Add(1)
					s.logger.Warn("stock below threshold",
						slog.String("tenant", tenant),
						slog.String("item_id", item.ID),
						slog.String("name", item.Name),
						slog.String("quantity", item.Quantity.String()),
						slog.String("threshold", item.AlertThreshold.String()),
					)
				}
				return nil
			})
			if err != nil {
				s.logger.Error("alert scan tenant failed", slog.String("tenant", tenant), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("stock alert scan complete",
		slog.Int("tenants", len(tenants)),
		slog.Int64("flagged", flagged.Load()),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
