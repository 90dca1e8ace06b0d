package netting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func issue(batch string, plant, mvt, d int, qty float64) Movement {
	return Movement{
		PostingDate: day(d),
		MvtType:     mvt,
		Plant:       plant,
		Batch:       batch,
		Material:    "100200",
		Qty:         qty,
	}
}

func TestNetReversalCancelsMostRecent(t *testing.T) {
	// two issues then one reversal: the later issue is cancelled, the
	// earlier one survives
	e := NewEngine([]Movement{
		issue("B1", 1401, 601, 1, -10),
		issue("B1", 1401, 601, 2, -5),
		issue("B1", 1401, 602, 3, 5),
	})

	res := e.Net("B1", 1401, 601, 602)
	assert.Equal(t, 2, res.TotalForward)
	assert.Equal(t, 1, res.TotalReverse)
	assert.Equal(t, 1, res.NettedCount)
	assert.Equal(t, 1, res.RemainingForward)
	assert.False(t, res.IsFullyReversed)
	require.Len(t, res.Surviving, 1)
	assert.Equal(t, day(1), res.Surviving[0].PostingDate)
	require.NotNil(t, res.LastValidDate)
	assert.Equal(t, day(1), *res.LastValidDate)
	assert.InDelta(t, 10.0, res.NetQuantity, 1e-9)
}

func TestNetFullyReversed(t *testing.T) {
	e := NewEngine([]Movement{
		issue("B1", 1401, 601, 1, -10),
		issue("B1", 1401, 602, 2, 10),
	})

	res := e.Net("B1", 1401, 601, 602)
	assert.True(t, res.IsFullyReversed)
	assert.Equal(t, 0, res.RemainingForward)
	assert.Equal(t, 1, res.NettedCount)
	assert.Nil(t, res.LastValidDate)
	assert.Nil(t, res.FirstValidDate)
	assert.Zero(t, res.NetQuantity)
	assert.Empty(t, res.Surviving)
}

func TestNetOverReversalDiscarded(t *testing.T) {
	// a reversal with nothing on the stack is dropped, it cannot go
	// negative or cancel a later issue
	e := NewEngine([]Movement{
		issue("B1", 1401, 602, 1, 10),
		issue("B1", 1401, 601, 2, -10),
	})

	res := e.Net("B1", 1401, 601, 602)
	assert.Equal(t, 1, res.RemainingForward)
	assert.False(t, res.IsFullyReversed)
	require.NotNil(t, res.LastValidDate)
	assert.Equal(t, day(2), *res.LastValidDate)
}

func TestNetPlantScoped(t *testing.T) {
	// a reversal at the factory must not cancel the DC's issue
	e := NewEngine([]Movement{
		issue("B1", 1401, 601, 1, -10),
		issue("B1", 1201, 602, 2, 10),
	})

	dc := e.Net("B1", 1401, 601, 602)
	assert.Equal(t, 1, dc.RemainingForward)
	assert.False(t, dc.IsFullyReversed)

	factory := e.Net("B1", 1201, 601, 602)
	assert.Equal(t, 0, factory.TotalForward)
	assert.True(t, factory.IsFullyReversed)
}

func TestNetEmptyGroup(t *testing.T) {
	e := NewEngine(nil)
	res := e.Net("B1", 1401, 601, 602)
	assert.True(t, res.IsFullyReversed)
	assert.Zero(t, res.TotalForward)
	assert.Zero(t, res.NetQuantity)
	assert.Nil(t, res.LastValidDate)
}

func TestNetSameDayKeepsSourceOrder(t *testing.T) {
	// issue and reversal on the same date: source order decides, so the
	// reversal after the issue cancels it
	e := NewEngine([]Movement{
		issue("B1", 1401, 601, 5, -10),
		issue("B1", 1401, 602, 5, 10),
	})
	res := e.Net("B1", 1401, 601, 602)
	assert.True(t, res.IsFullyReversed)
}

func TestFirstValidReceiptDate(t *testing.T) {
	// receipt Jan 2 reversed on Jan 3, second receipt Jan 4 survives,
	// third receipt Jan 6 also survives; first valid is Jan 4
	e := NewEngine([]Movement{
		issue("B2", 1401, 101, 2, 100),
		issue("B2", 1401, 102, 3, -100),
		issue("B2", 1401, 101, 4, 100),
		issue("B2", 1401, 101, 6, 50),
	})

	got := e.FirstValidReceiptDate("B2", 1401)
	require.NotNil(t, got)
	assert.Equal(t, day(4), *got)

	assert.Nil(t, e.FirstValidReceiptDate("B2", 1201))
}

func TestLastValidIssueDate(t *testing.T) {
	e := NewEngine([]Movement{
		issue("B3", 1401, 601, 1, -10),
		issue("B3", 1401, 601, 5, -10),
	})

	got := e.LastValidIssueDate("B3", 1401)
	require.NotNil(t, got)
	assert.Equal(t, day(5), *got)
}

func TestDeliveryStatus(t *testing.T) {
	e := NewEngine([]Movement{
		// B-DEL: clean delivery
		issue("B-DEL", 1401, 601, 1, -10),
		// B-PART: one of two issues reversed
		issue("B-PART", 1401, 601, 1, -10),
		issue("B-PART", 1401, 601, 2, -5),
		issue("B-PART", 1401, 602, 3, 5),
		// B-FULL: everything reversed
		issue("B-FULL", 1401, 601, 1, -10),
		issue("B-FULL", 1401, 602, 2, 10),
	})

	assert.Equal(t, domain.DeliveryDelivered, e.DeliveryStatus("B-DEL", 1401))
	assert.Equal(t, domain.DeliveryPartiallyReversed, e.DeliveryStatus("B-PART", 1401))
	assert.Equal(t, domain.DeliveryFullyReversed, e.DeliveryStatus("B-FULL", 1401))
	// unseen batch counts as fully reversed (nothing survived)
	assert.Equal(t, domain.DeliveryFullyReversed, e.DeliveryStatus("B-NONE", 1401))
}

func TestNetQuantityIsAbsolute(t *testing.T) {
	e := NewEngine([]Movement{
		issue("B4", 1401, 601, 1, -30),
		issue("B4", 1401, 601, 2, -20),
	})
	res := e.Net("B4", 1401, 601, 602)
	assert.InDelta(t, 50.0, res.NetQuantity, 1e-9)
}

func TestBatches(t *testing.T) {
	e := NewEngine([]Movement{
		issue("B1", 1401, 601, 1, -10),
		issue("B2", 1401, 101, 2, 10),
		issue("B1", 1401, 602, 3, 10),
		issue("B3", 1201, 261, 4, -10),
	})
	assert.Equal(t, []string{"B1", "B2"}, e.Batches(1401))
	assert.Equal(t, []string{"B3"}, e.Batches(1201))
}
