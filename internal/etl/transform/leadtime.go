package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/netting"
)

// leadTimeChunk is how many rows go into one insert transaction, so a
// long recompute makes visible progress instead of one giant commit.
const leadTimeChunk = 1000

// LeadTimeData feeds the pure lead-time computation. The netting engine
// carries the movement history; the maps resolve cross-source joins.
type LeadTimeData struct {
	Orders []domain.FactProduction
	Engine *netting.Engine
	Rules  domain.Rules

	// Movements is the raw movement history behind the engine. Storage
	// and purchase rows read it directly: issues count at any plant,
	// and purchase receipts are taken as posted, not netted.
	Movements []netting.Movement

	// PODates maps purchase order number to its order date.
	PODates map[string]time.Time
	// POSuppliers maps purchase order number to the supplying plant.
	POSuppliers map[string]string
	// SOChannels maps sales order number to distribution channel,
	// resolved from billing.
	SOChannels map[string]string
	// MaterialChannels maps material code to its primary channel,
	// resolved from the channel master.
	MaterialChannels map[string]string
}

// ComputeLeadTimes derives one lead-time row per finished produced
// batch, then one PURCHASE row per goods receipt against a purchase
// order whose batch was not produced in-house. Stage conventions:
//
//	preparation: sales PO date -> release (MTO only)
//	production:  release -> actual finish
//	transit:     finish -> first surviving DC receipt (packaged-FG
//	             controller only; other controllers stay at the plant)
//	storage:     finish + transit -> first delivery issue, any plant
//
// Stages clamp at zero; a missing boundary zeroes the stage rather than
// dropping the row. Orders still open (no actual finish) emit nothing.
func ComputeLeadTimes(d LeadTimeData) []domain.FactLeadTime {
	var out []domain.FactLeadTime
	producedBatches := make(map[string]bool)
	seenOrderBatch := make(map[string]bool)
	firstIssue := firstIssueDates(d.Movements)

	for _, o := range d.Orders {
		batch := deref(o.Batch)
		if batch != "" {
			producedBatches[batch] = true
		}
		if o.FinishDate == nil {
			continue
		}
		dedupeKey := o.OrderNumber + "|" + batch
		if seenOrderBatch[dedupeKey] {
			continue
		}
		seenOrderBatch[dedupeKey] = true

		row := domain.FactLeadTime{
			MaterialCode: o.MaterialCode,
			PlantCode:    &o.PlantCode,
			OrderNumber:  &o.OrderNumber,
			OrderType:    orderTypeOf(o),
			Batch:        o.Batch,
			ChannelCode:  d.channelFor(o),
			StartDate:    o.ReleaseDate,
			EndDate:      o.FinishDate,
		}

		if o.ReleaseDate != nil {
			row.ProductionDays = clampDays(*o.ReleaseDate, *o.FinishDate)
		}

		// Only the packaged-FG controller ships factory to DC;
		// intermediates never leave the plant, so their transit is zero.
		if batch != "" && o.MRPController != nil && *o.MRPController == d.Rules.MTOController {
			if receipt := d.Engine.FirstValidReceiptDate(batch, d.Rules.DCPlant); receipt != nil {
				row.TransitDays = clampDays(*o.FinishDate, *receipt)
				row.EndDate = receipt
			}
		}

		if o.IsMTO {
			if poDate, ok := d.salesPODateFor(batch); ok && o.ReleaseDate != nil {
				row.PreparationDays = clampDays(poDate, *o.ReleaseDate)
				start := poDate
				row.StartDate = &start
			}
		}

		if batch != "" {
			if issue, ok := firstIssue[batch]; ok {
				storageStart := o.FinishDate.AddDate(0, 0, row.TransitDays)
				if !issue.Before(storageStart) {
					row.StorageDays = clampDays(storageStart, issue)
					end := issue
					row.EndDate = &end
				}
			}
		}

		row.LeadTimeDays = row.PreparationDays + row.ProductionDays +
			row.TransitDays + row.StorageDays + row.DeliveryDays
		out = append(out, row)
	}

	// Goods receipts against a purchase order are bought stock. Batches
	// a production order made in-house already have a row above.
	for _, m := range d.Movements {
		if m.MvtType != domain.MvtGoodsReceipt || m.PurchaseOrder == "" {
			continue
		}
		if m.Batch != "" && producedBatches[m.Batch] {
			continue
		}
		dedupeKey := m.PurchaseOrder + "|" + m.Batch
		if seenOrderBatch[dedupeKey] {
			continue
		}
		seenOrderBatch[dedupeKey] = true

		poDate, ok := d.PODates[m.PurchaseOrder]
		if !ok {
			continue
		}
		po := m.PurchaseOrder
		plant := m.Plant
		gr := m.PostingDate

		row := domain.FactLeadTime{
			OrderNumber: &po,
			OrderType:   domain.OrderTypePurchase,
			PlantCode:   &plant,
			StartDate:   &poDate,
			EndDate:     &gr,
			TransitDays: clampDays(poDate, gr),
		}
		if m.Batch != "" {
			b := m.Batch
			row.Batch = &b
		}
		if m.Material != "" {
			mat := m.Material
			row.MaterialCode = &mat
			if ch, ok := d.MaterialChannels[mat]; ok {
				row.ChannelCode = &ch
			}
		}
		if supplier, ok := d.POSuppliers[po]; ok && supplier != "" {
			row.Vendor = &supplier
		}
		if m.Batch != "" {
			if issue, ok := firstIssue[m.Batch]; ok && !issue.Before(gr) {
				row.StorageDays = clampDays(gr, issue)
				end := issue
				row.EndDate = &end
			}
		}
		row.LeadTimeDays = row.TransitDays + row.StorageDays
		out = append(out, row)
	}

	return out
}

// firstIssueDates maps each batch to its earliest delivery issue (601)
// posting date, straight from the raw movement rows. Issues are not
// plant-scoped here: a batch can ship from the factory or the DC.
func firstIssueDates(movements []netting.Movement) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, m := range movements {
		if m.MvtType != domain.MvtIssueDelivery || m.Batch == "" {
			continue
		}
		if existing, ok := out[m.Batch]; !ok || m.PostingDate.Before(existing) {
			out[m.Batch] = m.PostingDate
		}
	}
	return out
}

// channelFor resolves the distribution channel: the sales order's
// billing channel for MTO, the material master channel otherwise.
func (d LeadTimeData) channelFor(o domain.FactProduction) *string {
	if o.IsMTO && o.SalesOrder != nil {
		if ch, ok := d.SOChannels[*o.SalesOrder]; ok {
			return &ch
		}
	}
	if o.MaterialCode != nil {
		if ch, ok := d.MaterialChannels[*o.MaterialCode]; ok {
			return &ch
		}
	}
	return nil
}

// salesPODateFor finds the order date of the sales PO that brought this
// batch to the DC: the surviving receipt's purchase order, when it
// carries the sales prefix.
func (d LeadTimeData) salesPODateFor(batch string) (time.Time, bool) {
	if batch == "" {
		return time.Time{}, false
	}
	res := d.Engine.Net(batch, d.Rules.DCPlant, domain.MvtGoodsReceipt, domain.MvtGoodsReceiptRev)
	po := firstPurchaseOrder(res.Surviving)
	if po == "" || !strings.HasPrefix(po, d.Rules.SalesPOPrefix) {
		return time.Time{}, false
	}
	date, ok := d.PODates[po]
	return date, ok
}

func firstPurchaseOrder(survivors []netting.Movement) string {
	for _, m := range survivors {
		if m.PurchaseOrder != "" {
			return m.PurchaseOrder
		}
	}
	return ""
}

func orderTypeOf(o domain.FactProduction) domain.OrderType {
	if o.IsMTO {
		return domain.OrderTypeMTO
	}
	return domain.OrderTypeMTS
}

// clampDays returns whole days from a to b, never negative.
func clampDays(a, b time.Time) int {
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// TransformLeadTimes recomputes fact_lead_time from scratch: truncate,
// compute, insert in chunks.
func (t *Transformer) TransformLeadTimes(ctx context.Context) error {
	data, err := t.loadLeadTimeData(ctx)
	if err != nil {
		return err
	}

	rows := ComputeLeadTimes(*data)
	if err := t.wh.TruncateLeadTimes(ctx); err != nil {
		return err
	}
	for start := 0; start < len(rows); start += leadTimeChunk {
		end := min(start+leadTimeChunk, len(rows))
		if err := t.wh.InsertLeadTimes(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("insert lead times [%d:%d]: %w", start, end, err)
		}
	}
	log.Info().Int("rows", len(rows)).Msg("fact_lead_time recomputed")
	return nil
}

func (t *Transformer) loadLeadTimeData(ctx context.Context) (*LeadTimeData, error) {
	production, err := t.raw.FetchProduction(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch production for lead times: %w", err)
	}
	movements, err := t.raw.FetchMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch movements for lead times: %w", err)
	}
	purchases, err := t.raw.FetchPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch purchases for lead times: %w", err)
	}
	billing, err := t.raw.FetchBilling(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch billing for lead times: %w", err)
	}
	channels, err := t.raw.FetchMaterialChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch channels for lead times: %w", err)
	}

	orders := make([]domain.FactProduction, 0, len(production))
	for _, r := range production {
		if r.Plant == nil {
			continue
		}
		orders = append(orders, domain.FactProduction{
			PlantCode:     *r.Plant,
			SalesOrder:    r.SalesOrder,
			OrderNumber:   r.OrderNumber,
			MaterialCode:  r.MaterialNumber,
			ReleaseDate:   r.ReleaseDate,
			FinishDate:    r.ActualFinishDate,
			Batch:         r.Batch,
			MRPController: r.MRPController,
			IsMTO:         t.classifier.IsMTO(r.SalesOrder, r.MRPController),
		})
	}

	nettingMovs := toNettingMovements(movements)
	engine := netting.NewEngine(nettingMovs)

	poDates := make(map[string]time.Time, len(purchases))
	poSuppliers := make(map[string]string, len(purchases))
	for _, p := range purchases {
		if p.PurchDate != nil {
			if existing, ok := poDates[p.PurchOrder]; !ok || p.PurchDate.Before(existing) {
				poDates[p.PurchOrder] = *p.PurchDate
			}
		}
		if p.SupplPlant != nil {
			poSuppliers[p.PurchOrder] = fmt.Sprintf("%d", *p.SupplPlant)
		}
	}

	soChannels := make(map[string]string)
	for _, b := range billing {
		if b.SONumber != nil && b.DistChannel != nil {
			if _, ok := soChannels[*b.SONumber]; !ok {
				soChannels[*b.SONumber] = *b.DistChannel
			}
		}
	}

	materialChannels := make(map[string]string, len(channels))
	for _, c := range channels {
		if _, ok := materialChannels[c.Material]; !ok {
			materialChannels[c.Material] = c.DistChannel
		}
	}

	return &LeadTimeData{
		Orders:           orders,
		Engine:           engine,
		Rules:            t.rules,
		Movements:        nettingMovs,
		PODates:          poDates,
		POSuppliers:      poSuppliers,
		SOChannels:       soChannels,
		MaterialChannels: materialChannels,
	}, nil
}

func toNettingMovements(raws []domain.RawMovement) []netting.Movement {
	out := make([]netting.Movement, 0, len(raws))
	for _, r := range raws {
		if r.PostingDate == nil || r.MvtType == nil || r.Plant == nil {
			continue
		}
		m := netting.Movement{
			PostingDate:   *r.PostingDate,
			MvtType:       *r.MvtType,
			Plant:         *r.Plant,
			Material:      deref(r.Material),
			Batch:         deref(r.Batch),
			Reference:     deref(r.Reference),
			PurchaseOrder: deref(r.PurchaseOrder),
		}
		if r.Qty != nil {
			m.Qty = *r.Qty
		}
		out = append(out, m)
	}
	return out
}
