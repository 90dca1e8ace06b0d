package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/netting"
)

func finishedOrder(orderNumber, batch string, finish time.Time) domain.FactProduction {
	return domain.FactProduction{
		OrderNumber:   orderNumber,
		Batch:         &batch,
		MaterialCode:  strPtr("MAT-1"),
		FinishDate:    &finish,
		MRPController: strPtr("P01"),
	}
}

func TestDetectDelayedTransitSeverities(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := finish.Add(200 * time.Hour)

	receiptAfter := func(batch string, hours time.Duration) netting.Movement {
		return netting.Movement{
			PostingDate: finish.Add(hours), MvtType: 101, Plant: 1401, Batch: batch,
		}
	}
	engine := netting.NewEngine([]netting.Movement{
		receiptAfter("B-OK", 24*time.Hour),
		receiptAfter("B-HIGH", 50*time.Hour),
		receiptAfter("B-CRIT", 100*time.Hour),
	})
	orders := []domain.FactProduction{
		finishedOrder("ORD-OK", "B-OK", finish),
		finishedOrder("ORD-HIGH", "B-HIGH", finish),
		finishedOrder("ORD-CRIT", "B-CRIT", finish),
	}

	alerts := DetectDelayedTransit(orders, engine, rules, 48, now)
	require.Len(t, alerts, 2)

	bySeverity := map[domain.AlertSeverity]domain.Alert{}
	for _, a := range alerts {
		bySeverity[a.Severity] = a
	}
	high, ok := bySeverity[domain.SeverityHigh]
	require.True(t, ok)
	assert.Equal(t, "B-HIGH", high.EntityID)
	assert.InDelta(t, 50, *high.StuckHours, 0.01)

	crit, ok := bySeverity[domain.SeverityCritical]
	require.True(t, ok)
	assert.Equal(t, "B-CRIT", crit.EntityID)
	assert.Equal(t, domain.AlertStatusActive, crit.Status)
	assert.Equal(t, domain.AlertTypeDelayedTransit, crit.AlertType)
}

func TestDetectDelayedTransitAlertFields(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := finish.Add(120 * time.Hour)

	engine := netting.NewEngine([]netting.Movement{
		{PostingDate: finish.Add(96 * time.Hour), MvtType: 101, Plant: 1401, Batch: "B2"},
	})
	alerts := DetectDelayedTransit(
		[]domain.FactProduction{finishedOrder("ORD-2", "B2", finish)},
		engine, rules, 48, now)

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, "BATCH", a.EntityType)
	assert.Equal(t, "B2", a.EntityID)
	require.NotNil(t, a.StuckHours)
	assert.Equal(t, 96.0, *a.StuckHours)
	require.NotNil(t, a.Threshold)
	assert.Equal(t, 48.0, *a.Threshold)
	require.NotNil(t, a.Message)
	assert.Contains(t, *a.Message, "96.0 hours")
}

func TestDetectDelayedTransitRoundsMetricToTenths(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	engine := netting.NewEngine([]netting.Movement{
		{PostingDate: finish.Add(50*time.Hour + 45*time.Minute), MvtType: 101, Plant: 1401, Batch: "B-ODD"},
	})
	alerts := DetectDelayedTransit(
		[]domain.FactProduction{finishedOrder("ORD-ODD", "B-ODD", finish)},
		engine, rules, 48, finish.Add(60*time.Hour))

	require.Len(t, alerts, 1)
	assert.InDelta(t, 50.8, *alerts[0].StuckHours, 0.001)
}

func TestDetectDelayedTransitSkipsUnreceivedBatches(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := finish.Add(80 * time.Hour)

	// Finished long ago but never posted at the DC: no receipt, no
	// transit measurement, no alert.
	engine := netting.NewEngine(nil)
	alerts := DetectDelayedTransit(
		[]domain.FactProduction{finishedOrder("ORD-STUCK", "B-STUCK", finish)},
		engine, rules, 48, now)
	assert.Empty(t, alerts)
}

func TestDetectDelayedTransitReversedReceiptCountsAsUnreceived(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := finish.Add(60 * time.Hour)

	// Receipt posted then reversed: the batch never really arrived.
	engine := netting.NewEngine([]netting.Movement{
		{PostingDate: finish.Add(10 * time.Hour), MvtType: 101, Plant: 1401, Batch: "B-REV"},
		{PostingDate: finish.Add(12 * time.Hour), MvtType: 102, Plant: 1401, Batch: "B-REV"},
	})
	alerts := DetectDelayedTransit(
		[]domain.FactProduction{finishedOrder("ORD-REV", "B-REV", finish)},
		engine, rules, 48, now)
	assert.Empty(t, alerts)
}

func TestDetectDelayedTransitIgnoresIntermediatesAndUnfinished(t *testing.T) {
	rules := domain.DefaultRules()
	finish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := finish.Add(200 * time.Hour)

	intermediate := finishedOrder("ORD-INT", "B-INT", finish)
	intermediate.MRPController = strPtr("P02")
	unfinished := finishedOrder("ORD-WIP", "B-WIP", finish)
	unfinished.FinishDate = nil
	noBatch := finishedOrder("ORD-NB", "", finish)

	// Every batch has a late receipt on record; only the guards keep
	// these out.
	engine := netting.NewEngine([]netting.Movement{
		{PostingDate: finish.Add(150 * time.Hour), MvtType: 101, Plant: 1401, Batch: "B-INT"},
		{PostingDate: finish.Add(150 * time.Hour), MvtType: 101, Plant: 1401, Batch: "B-WIP"},
	})
	alerts := DetectDelayedTransit(
		[]domain.FactProduction{intermediate, unfinished, noBatch},
		engine, rules, 48, now)
	assert.Empty(t, alerts)
}
