package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/netting"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(d int) *time.Time {
	t := day(d)
	return &t
}

func strPtr(s string) *string { return &s }

func mtoOrder(orderNumber, batch string, release, finish int) domain.FactProduction {
	return domain.FactProduction{
		PlantCode:     1201,
		OrderNumber:   orderNumber,
		SalesOrder:    strPtr("SO-9001"),
		MaterialCode:  strPtr("MAT-1"),
		Batch:         strPtr(batch),
		ReleaseDate:   dayPtr(release),
		FinishDate:    dayPtr(finish),
		MRPController: strPtr("P01"),
		IsMTO:         true,
	}
}

// leadTimeData wires one movement slice into both the engine and the
// raw-movement view the computation reads.
func leadTimeData(orders []domain.FactProduction, movs []netting.Movement) LeadTimeData {
	return LeadTimeData{
		Orders:    orders,
		Engine:    netting.NewEngine(movs),
		Movements: movs,
		Rules:     domain.DefaultRules(),
	}
}

func TestComputeLeadTimesMTOStages(t *testing.T) {
	// PO placed day 1, released day 3, finished day 6, received at the
	// DC day 8, issued day 12.
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B1", Material: "MAT-1", PurchaseOrder: "4400000001"},
		{PostingDate: day(12), MvtType: 601, Plant: 1401, Batch: "B1", Material: "MAT-1"},
	}
	data := leadTimeData([]domain.FactProduction{mtoOrder("ORD-1", "B1", 3, 6)}, movs)
	data.PODates = map[string]time.Time{"4400000001": day(1)}
	data.SOChannels = map[string]string{"SO-9001": "30"}
	data.MaterialChannels = map[string]string{"MAT-1": "20"}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, domain.OrderTypeMTO, row.OrderType)
	assert.Equal(t, 2, row.PreparationDays)
	assert.Equal(t, 3, row.ProductionDays)
	assert.Equal(t, 2, row.TransitDays)
	assert.Equal(t, 4, row.StorageDays)
	assert.Equal(t, 0, row.DeliveryDays)
	assert.Equal(t, 11, row.LeadTimeDays)
	require.NotNil(t, row.ChannelCode)
	assert.Equal(t, "30", *row.ChannelCode, "MTO channel comes from the sales order")
	require.NotNil(t, row.StartDate)
	assert.Equal(t, day(1), *row.StartDate)
	require.NotNil(t, row.EndDate)
	assert.Equal(t, day(12), *row.EndDate)
}

func TestComputeLeadTimesTransitFollowsMRPController(t *testing.T) {
	// Packaged FG on P01 ships to the DC; other controllers stay at the
	// plant regardless of what the movement history shows.
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B2", Material: "MAT-1"},
	}

	packaged := mtoOrder("ORD-2", "B2", 3, 6)
	packaged.IsMTO = false

	intermediate := mtoOrder("ORD-2B", "B2", 3, 6)
	intermediate.IsMTO = false
	intermediate.MRPController = strPtr("P02")

	data := leadTimeData([]domain.FactProduction{packaged, intermediate}, movs)
	data.MaterialChannels = map[string]string{"MAT-1": "20"}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.OrderTypeMTS, rows[0].OrderType)
	assert.Equal(t, 0, rows[0].PreparationDays, "preparation is an MTO stage")
	assert.Equal(t, 2, rows[0].TransitDays, "P01 MTS still travels to the DC")
	assert.Equal(t, 0, rows[1].TransitDays, "intermediates never leave the plant")
	require.NotNil(t, rows[0].ChannelCode)
	assert.Equal(t, "20", *rows[0].ChannelCode, "MTS falls back to the material channel")
}

func TestComputeLeadTimesSkipsOpenOrders(t *testing.T) {
	open := mtoOrder("ORD-OPEN", "B-OPEN", 3, 6)
	open.FinishDate = nil
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B-OPEN", PurchaseOrder: "4500000099"},
	}
	data := leadTimeData([]domain.FactProduction{open}, movs)
	data.PODates = map[string]time.Time{"4500000099": day(1)}

	// No production row while the order is still open, and its batch is
	// still in-house production, not bought stock.
	rows := ComputeLeadTimes(data)
	assert.Empty(t, rows)
}

func TestComputeLeadTimesStorageFromFactoryIssue(t *testing.T) {
	// Batch issued straight from the factory, never received at the DC:
	// storage still runs from finish to the first issue.
	movs := []netting.Movement{
		{PostingDate: day(9), MvtType: 601, Plant: 1201, Batch: "B7", Material: "MAT-1"},
	}
	order := mtoOrder("ORD-7", "B7", 3, 6)
	order.IsMTO = false
	data := leadTimeData([]domain.FactProduction{order}, movs)

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].TransitDays)
	assert.Equal(t, 3, rows[0].StorageDays)
	assert.Equal(t, 3+3, rows[0].LeadTimeDays)
	require.NotNil(t, rows[0].EndDate)
	assert.Equal(t, day(9), *rows[0].EndDate)
}

func TestComputeLeadTimesStorageStartsAfterTransit(t *testing.T) {
	// Received at the DC day 8, issued day 12: storage counts from the
	// arrival, not from the factory finish.
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B8"},
		{PostingDate: day(12), MvtType: 601, Plant: 1401, Batch: "B8"},
	}
	order := mtoOrder("ORD-8", "B8", 3, 6)
	order.IsMTO = false
	data := leadTimeData([]domain.FactProduction{order}, movs)

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TransitDays)
	assert.Equal(t, 4, rows[0].StorageDays)
}

func TestComputeLeadTimesNegativeStagesClampToZero(t *testing.T) {
	// Finish recorded before release; receipt before finish.
	order := mtoOrder("ORD-3", "B3", 10, 6)
	movs := []netting.Movement{
		{PostingDate: day(2), MvtType: 101, Plant: 1401, Batch: "B3", PurchaseOrder: "4400000002"},
	}
	data := leadTimeData([]domain.FactProduction{order}, movs)
	data.PODates = map[string]time.Time{"4400000002": day(20)}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ProductionDays)
	assert.Equal(t, 0, rows[0].TransitDays)
	assert.Equal(t, 0, rows[0].PreparationDays)
}

func TestComputeLeadTimesDedupesOrderBatch(t *testing.T) {
	data := leadTimeData([]domain.FactProduction{
		mtoOrder("ORD-4", "B4", 3, 6),
		mtoOrder("ORD-4", "B4", 3, 6),
	}, nil)
	rows := ComputeLeadTimes(data)
	assert.Len(t, rows, 1)
}

func TestComputeLeadTimesPurchaseRowForUnproducedBatch(t *testing.T) {
	// Bought stock received at the factory, shipped out five days later.
	movs := []netting.Movement{
		{PostingDate: day(9), MvtType: 101, Plant: 1201, Batch: "BOUGHT", Material: "MAT-9", PurchaseOrder: "4500000009"},
		{PostingDate: day(14), MvtType: 601, Plant: 1201, Batch: "BOUGHT", Material: "MAT-9"},
	}
	data := leadTimeData(nil, movs)
	data.PODates = map[string]time.Time{"4500000009": day(4)}
	data.POSuppliers = map[string]string{"4500000009": "1203"}
	data.MaterialChannels = map[string]string{"MAT-9": "10"}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, domain.OrderTypePurchase, row.OrderType)
	require.NotNil(t, row.OrderNumber)
	assert.Equal(t, "4500000009", *row.OrderNumber)
	require.NotNil(t, row.PlantCode)
	assert.Equal(t, 1201, *row.PlantCode, "purchases land at any plant, not just the DC")
	assert.Equal(t, 5, row.TransitDays)
	assert.Equal(t, 5, row.StorageDays)
	assert.Equal(t, 10, row.LeadTimeDays)
	require.NotNil(t, row.Vendor)
	assert.Equal(t, "1203", *row.Vendor)
	require.NotNil(t, row.MaterialCode)
	assert.Equal(t, "MAT-9", *row.MaterialCode)
}

func TestComputeLeadTimesProducedBatchNotDoubledAsPurchase(t *testing.T) {
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B5", PurchaseOrder: "4400000005"},
	}
	data := leadTimeData([]domain.FactProduction{mtoOrder("ORD-5", "B5", 3, 6)}, movs)
	data.PODates = map[string]time.Time{"4400000005": day(1)}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.NotEqual(t, domain.OrderTypePurchase, rows[0].OrderType)
}

func TestComputeLeadTimesPurchaseDedupesOrderBatch(t *testing.T) {
	// Two receipt lines for the same PO and batch collapse to one row.
	movs := []netting.Movement{
		{PostingDate: day(9), MvtType: 101, Plant: 1401, Batch: "B6", PurchaseOrder: "4500000006"},
		{PostingDate: day(10), MvtType: 101, Plant: 1401, Batch: "B6", PurchaseOrder: "4500000006"},
	}
	data := leadTimeData(nil, movs)
	data.PODates = map[string]time.Time{"4500000006": day(4)}

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].TransitDays, "first receipt wins")
}

func TestComputeLeadTimesReversedReceiptZeroesTransit(t *testing.T) {
	// DC receipt cancelled the next day: the batch never arrived, so the
	// production row carries no transit.
	movs := []netting.Movement{
		{PostingDate: day(8), MvtType: 101, Plant: 1401, Batch: "B9"},
		{PostingDate: day(9), MvtType: 102, Plant: 1401, Batch: "B9"},
	}
	order := mtoOrder("ORD-9", "B9", 3, 6)
	order.IsMTO = false
	data := leadTimeData([]domain.FactProduction{order}, movs)

	rows := ComputeLeadTimes(data)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].TransitDays)
}
