package transform

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/netting"
)

// DetectDelayedTransit flags finished packaged-goods batches that took
// too long between factory finish and DC receipt. Only orders on the
// packaged-FG controller ship factory to DC; intermediates never leave
// the plant. Batches with no surviving DC receipt are skipped, not
// alerted: the clock only runs once the goods actually arrived.
func DetectDelayedTransit(orders []domain.FactProduction, engine *netting.Engine, rules domain.Rules, thresholdHours float64, now time.Time) []domain.Alert {
	var alerts []domain.Alert
	for _, o := range orders {
		if o.FinishDate == nil || o.Batch == nil || *o.Batch == "" {
			continue
		}
		if o.MRPController == nil || *o.MRPController != rules.MTOController {
			continue
		}

		receipt := engine.FirstValidReceiptDate(*o.Batch, rules.DCPlant)
		if receipt == nil {
			continue
		}
		hours := receipt.Sub(*o.FinishDate).Hours()
		if hours <= thresholdHours {
			continue
		}

		severity := domain.SeverityMedium
		switch {
		case hours > 72:
			severity = domain.SeverityCritical
		case hours > 48:
			severity = domain.SeverityHigh
		}

		rounded := math.Round(hours*10) / 10
		threshold := thresholdHours
		msg := fmt.Sprintf("batch %s took %.1f hours from factory finish to DC receipt", *o.Batch, rounded)

		alerts = append(alerts, domain.Alert{
			AlertType:  domain.AlertTypeDelayedTransit,
			Severity:   severity,
			Status:     domain.AlertStatusActive,
			EntityType: "BATCH",
			EntityID:   *o.Batch,
			Batch:      o.Batch,
			Material:   o.MaterialCode,
			Plant:      &rules.DCPlant,
			StuckHours: &rounded,
			Threshold:  &threshold,
			DetectedAt: now,
			Message:    &msg,
		})
	}
	return alerts
}

// DetectAlerts runs detection over current data and opens new alerts,
// skipping any entity that already has an active alert of the same type.
func (t *Transformer) DetectAlerts(ctx context.Context, thresholdHours float64) error {
	movements, err := t.raw.FetchMovements(ctx)
	if err != nil {
		return fmt.Errorf("fetch movements for alerts: %w", err)
	}
	production, err := t.raw.FetchProduction(ctx)
	if err != nil {
		return fmt.Errorf("fetch production for alerts: %w", err)
	}
	engine := netting.NewEngine(toNettingMovements(movements))
	orders := make([]domain.FactProduction, 0, len(production))
	for _, r := range production {
		orders = append(orders, domain.FactProduction{
			OrderNumber:   r.OrderNumber,
			MaterialCode:  r.MaterialNumber,
			Batch:         r.Batch,
			FinishDate:    r.ActualFinishDate,
			MRPController: r.MRPController,
		})
	}

	alerts := DetectDelayedTransit(orders, engine, t.rules, thresholdHours, time.Now())

	opened := 0
	for _, a := range alerts {
		exists, err := t.wh.ActiveAlertExists(ctx, a.AlertType, a.EntityID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := t.wh.InsertAlert(ctx, a); err != nil {
			return err
		}
		opened++
	}
	log.Info().Int("detected", len(alerts)).Int("opened", opened).
		Float64("threshold_hours", thresholdHours).Msg("delayed transit detection finished")
	return nil
}
