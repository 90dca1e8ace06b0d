// Package transform builds the fact and dimension tables from staged
// raw rows: unit normalization, order classification, movement netting,
// lead-time computation and delayed-transit detection.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/classify"
	"github.com/alkana/warehouse-go/internal/etl/excel"
	"github.com/alkana/warehouse-go/internal/etl/uom"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
)

// Transformer runs raw-to-fact transforms. Construct once and reuse;
// each method is a full rebuild or upsert of its fact.
type Transformer struct {
	raw        *postgres.RawStore
	wh         *postgres.WarehouseRepo
	rules      domain.Rules
	classifier *classify.Classifier
}

func New(raw *postgres.RawStore, wh *postgres.WarehouseRepo, rules domain.Rules) *Transformer {
	return &Transformer{
		raw:        raw,
		wh:         wh,
		rules:      rules,
		classifier: classify.New(rules),
	}
}

// buildConverter derives the kg-per-unit table from billing, validated
// against deliveries.
func (t *Transformer) buildConverter(ctx context.Context) (*uom.Converter, error) {
	billing, err := t.raw.FetchBilling(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch billing for uom: %w", err)
	}
	deliveries, err := t.raw.FetchDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch deliveries for uom: %w", err)
	}

	samples := make([]uom.BillingSample, 0, len(billing))
	for _, b := range billing {
		if b.Material == nil || b.BillingQty == nil || b.NetWeight == nil {
			continue
		}
		s := uom.BillingSample{Material: *b.Material, BillingQty: *b.BillingQty, NetWeight: *b.NetWeight}
		if b.MaterialDesc != nil {
			s.MaterialDesc = *b.MaterialDesc
		}
		samples = append(samples, s)
	}
	checks := make([]uom.DeliverySample, 0, len(deliveries))
	for _, d := range deliveries {
		if d.Material == nil || d.DeliveryQty == nil || d.NetWeight == nil {
			continue
		}
		checks = append(checks, uom.DeliverySample{
			Material: *d.Material, DeliveryQty: *d.DeliveryQty, NetWeight: *d.NetWeight,
		})
	}

	conv := uom.NewConverter()
	conv.BuildFromBilling(samples, checks)
	return conv, nil
}

// RefreshUOMConversions rebuilds dim_uom_conversion from billing.
func (t *Transformer) RefreshUOMConversions(ctx context.Context) error {
	conv, err := t.buildConverter(ctx)
	if err != nil {
		return err
	}
	factors := conv.Factors()
	rows := make([]domain.DimUOMConversion, 0, len(factors))
	for _, f := range factors {
		if !f.IsValid {
			continue
		}
		row := domain.DimUOMConversion{
			MaterialCode: f.MaterialCode,
			KGPerUnit:    f.KGPerUnit,
			Source:       f.Source,
			SampleCount:  f.SampleCount,
			VariancePct:  f.VariancePct,
		}
		if f.MaterialDesc != "" {
			row.MaterialDesc = &f.MaterialDesc
		}
		rows = append(rows, row)
	}
	if err := t.wh.UpsertUOMConversions(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("materials", len(rows)).Msg("uom conversion table refreshed")
	return nil
}

// TransformProduction rebuilds fact_production from raw_cooispi with
// MTO classification, order status and kg-normalized quantities.
func (t *Transformer) TransformProduction(ctx context.Context) error {
	raws, err := t.raw.FetchProduction(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw production: %w", err)
	}
	conv, err := t.buildConverter(ctx)
	if err != nil {
		return err
	}

	rows := make([]domain.FactProduction, 0, len(raws))
	for _, r := range raws {
		if r.Plant == nil {
			continue
		}
		material := deref(r.MaterialNumber)
		uomCode := deref(r.UOM)
		orderKG, _ := conv.NormalizeToKG(r.OrderQty, uomCode, material)
		deliveredKG, _ := conv.NormalizeToKG(r.DeliveredQty, uomCode, material)

		rows = append(rows, domain.FactProduction{
			PlantCode:      *r.Plant,
			SalesOrder:     r.SalesOrder,
			OrderNumber:    r.OrderNumber,
			OrderType:      r.OrderType,
			MaterialCode:   r.MaterialNumber,
			MaterialDesc:   r.MaterialDesc,
			ReleaseDate:    r.ReleaseDate,
			FinishDate:     r.ActualFinishDate,
			Batch:          r.Batch,
			SystemStatus:   r.SystemStatus,
			MRPController:  r.MRPController,
			OrderQty:       r.OrderQty,
			OrderQtyKG:     orderKG,
			DeliveredQty:   r.DeliveredQty,
			DeliveredQtyKG: deliveredKG,
			UOM:            r.UOM,
			IsMTO:          t.classifier.IsMTO(r.SalesOrder, r.MRPController),
			OrderStatus:    t.classifier.OrderStatus(r.ActualFinishDate, r.DeliveredQty),
			RowHash:        r.RowHash,
		})
	}
	if err := t.wh.UpsertProduction(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("orders", len(rows)).Msg("fact_production transformed")
	return nil
}

// TransformInventory rebuilds fact_inventory: one fact row per raw
// movement, reversals included, each stamped with its stock impact.
func (t *Transformer) TransformInventory(ctx context.Context) error {
	raws, err := t.raw.FetchMovements(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw movements: %w", err)
	}
	conv, err := t.buildConverter(ctx)
	if err != nil {
		return err
	}

	rows := make([]domain.FactInventory, 0, len(raws))
	for _, r := range raws {
		if r.PostingDate == nil || r.MvtType == nil || r.Plant == nil {
			continue
		}
		material := deref(r.Material)
		kg, _ := conv.NormalizeToKG(r.Qty, deref(r.UOM), material)

		rows = append(rows, domain.FactInventory{
			PostingDate:   *r.PostingDate,
			MvtType:       *r.MvtType,
			PlantCode:     *r.Plant,
			SlocCode:      r.Sloc,
			MaterialCode:  r.Material,
			MaterialDesc:  r.MaterialDesc,
			Batch:         r.Batch,
			Qty:           r.Qty,
			QtyKG:         kg,
			UOM:           r.UOM,
			MaterialDoc:   r.MaterialDoc,
			Reference:     r.Reference,
			PurchaseOrder: r.PurchaseOrder,
			StockImpact:   t.rules.StockImpact(*r.MvtType),
			RowHash:       r.RowHash,
		})
	}
	if err := t.wh.ReplaceInventory(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("movements", len(rows)).Msg("fact_inventory rebuilt")
	return nil
}

// TransformPurchaseOrders rebuilds fact_purchase_order with the sales
// PO flag.
func (t *Transformer) TransformPurchaseOrders(ctx context.Context) error {
	raws, err := t.raw.FetchPurchases(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw purchases: %w", err)
	}

	rows := make([]domain.FactPurchaseOrder, 0, len(raws))
	for _, r := range raws {
		rows = append(rows, domain.FactPurchaseOrder{
			PurchOrder:   r.PurchOrder,
			Item:         r.Item,
			PurchDate:    r.PurchDate,
			SupplPlant:   r.SupplPlant,
			DestPlant:    r.DestPlant,
			MaterialCode: r.Material,
			MaterialDesc: r.MaterialDesc,
			QtyOrder:     r.QtyOrder,
			DeliveryDate: r.DeliveryDate,
			QtyGI:        r.QtyGI,
			QtyReceipt:   r.QtyReceipt,
			IsSalesPO:    t.classifier.IsSalesPO(r.PurchOrder),
			RowHash:      r.RowHash,
		})
	}
	if err := t.wh.ReplacePurchaseOrders(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("lines", len(rows)).Msg("fact_purchase_order rebuilt")
	return nil
}

// TransformBilling rebuilds fact_billing with kg normalization and the
// semester/year period tags.
func (t *Transformer) TransformBilling(ctx context.Context) error {
	raws, err := t.raw.FetchBilling(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw billing: %w", err)
	}
	conv, err := t.buildConverter(ctx)
	if err != nil {
		return err
	}

	rows := make([]domain.FactBilling, 0, len(raws))
	for _, r := range raws {
		kg, _ := conv.NormalizeToKG(r.BillingQty, deref(r.SalesUnit), deref(r.Material))

		var semester, year *int
		if r.BillingDate != nil {
			s := classify.Semester(*r.BillingDate)
			y := r.BillingDate.Year()
			semester, year = &s, &y
		}

		rows = append(rows, domain.FactBilling{
			BillingDate:    r.BillingDate,
			BillingDoc:     r.BillingDoc,
			BillingItem:    r.BillingItem,
			DistChannel:    r.DistChannel,
			CustomerName:   r.CustomerName,
			CustGroup:      r.CustGroup,
			SalesmanName:   r.SalesmanName,
			MaterialCode:   r.Material,
			MaterialDesc:   r.MaterialDesc,
			ProdHierarchy:  r.ProdHierarchy,
			BillingQty:     r.BillingQty,
			BillingQtyKG:   kg,
			SalesUnit:      r.SalesUnit,
			NetValue:       r.NetValue,
			Total:          r.Total,
			NetWeight:      r.NetWeight,
			SONumber:       r.SONumber,
			SODate:         r.SODate,
			DocReferenceOD: r.DocReferenceOD,
			Semester:       semester,
			Year:           year,
			RowHash:        r.RowHash,
		})
	}
	if err := t.wh.ReplaceBilling(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("lines", len(rows)).Msg("fact_billing rebuilt")
	return nil
}

// TransformDeliveries upserts fact_delivery by (delivery, line_item).
func (t *Transformer) TransformDeliveries(ctx context.Context) error {
	raws, err := t.raw.FetchDeliveries(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw deliveries: %w", err)
	}
	conv, err := t.buildConverter(ctx)
	if err != nil {
		return err
	}

	rows := make([]domain.FactDelivery, 0, len(raws))
	for _, r := range raws {
		kg, _ := conv.NormalizeToKG(r.DeliveryQty, deref(r.TonaseUnit), deref(r.Material))

		rows = append(rows, domain.FactDelivery{
			ActualGIDate:  r.ActualGIDate,
			Delivery:      r.Delivery,
			LineItem:      r.LineItem,
			SOReference:   r.SOReference,
			DistChannel:   r.DistChannel,
			CustGroup:     r.CustGroup,
			SoldToParty:   r.SoldToParty,
			ShipToName:    r.ShipToName,
			SalesmanName:  r.SalesmanName,
			MaterialCode:  r.Material,
			MaterialDesc:  r.MaterialDesc,
			DeliveryQty:   r.DeliveryQty,
			DeliveryQtyKG: kg,
			NetWeight:     r.NetWeight,
			ProdHierarchy: r.ProdHierarchy,
			RowHash:       r.RowHash,
		})
	}
	if err := t.wh.UpsertDeliveries(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("lines", len(rows)).Msg("fact_delivery upserted")
	return nil
}

// TransformARAging rebuilds fact_ar_aging snapshot by snapshot from the
// raw rows; only snapshots present in raw are touched.
func (t *Transformer) TransformARAging(ctx context.Context) error {
	raws, err := t.raw.FetchARAging(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw ar aging: %w", err)
	}

	bySnapshot := make(map[time.Time][]domain.FactARAging)
	var order []time.Time
	for _, r := range raws {
		if r.SnapshotDate == nil {
			continue
		}
		day := *r.SnapshotDate
		if _, seen := bySnapshot[day]; !seen {
			order = append(order, day)
		}
		bySnapshot[day] = append(bySnapshot[day], domain.FactARAging{
			DistChannel:      r.DistChannel,
			CustGroup:        r.CustGroup,
			SalesmanName:     r.SalesmanName,
			CustomerName:     r.CustomerName,
			Currency:         r.Currency,
			TotalTarget:      r.TotalTarget,
			TotalRealization: r.TotalRealization,
			SnapshotDate:     day,
			RowHash:          r.RowHash,
		})
	}

	for _, day := range order {
		if err := t.wh.ReplaceARSnapshot(ctx, day, bySnapshot[day]); err != nil {
			return err
		}
	}
	log.Info().Int("snapshots", len(order)).Msg("fact_ar_aging rebuilt")
	return nil
}

// TransformTargets rebuilds fact_target.
func (t *Transformer) TransformTargets(ctx context.Context) error {
	raws, err := t.raw.FetchTargets(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw targets: %w", err)
	}

	rows := make([]domain.FactTarget, 0, len(raws))
	for _, r := range raws {
		rows = append(rows, domain.FactTarget{
			SalesmanName: r.SalesmanName,
			Semester:     r.Semester,
			Year:         r.Year,
			Target:       r.Target,
			RowHash:      r.RowHash,
		})
	}
	if err := t.wh.ReplaceTargets(ctx, rows); err != nil {
		return err
	}
	log.Info().Int("targets", len(rows)).Msg("fact_target rebuilt")
	return nil
}

// TransformPerformance upserts fact_production_performance for one
// reporting period. Every row carries the first of the month as its
// reference date so re-uploads of the same period update in place.
func (t *Transformer) TransformPerformance(ctx context.Context, month time.Month, year int) error {
	raws, err := t.raw.FetchPerformance(ctx)
	if err != nil {
		return fmt.Errorf("fetch raw performance: %w", err)
	}
	referenceDate := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]domain.FactPerformance, 0, len(raws))
	for _, r := range raws {
		rows = append(rows, domain.FactPerformance{
			ProcessOrderID: excel.StripLeadingZeros(r.ProcessOrder),
			BatchID:        r.Batch,
			MaterialCode:   r.Material,
			MaterialDesc:   r.MaterialDesc,
			ParentOrderID:  stripOrderRef(r.OrderSFGLiquid),
			MRPController:  r.MRPController,
			ProductGroup1:  r.ProductGroup1,
			ProductGroup2:  r.ProductGroup2,
			OutputActualKG: r.OutputActualKG,
			InputActualKG:  r.GISFGLiquid,
			OrderQty:       r.ProcessOrderQty,
			LossKG:         r.LossKG,
			LossPct:        r.LossPct,
			SGTheoretical:  r.SGTheoretical,
			SGActual:       r.SGActual,
			PostingDate:    r.PostingDate,
			ReferenceDate:  referenceDate,
		})
	}
	if err := t.wh.UpsertPerformance(ctx, rows); err != nil {
		return err
	}
	log.Info().Str("period", referenceDate.Format("2006-01")).Int("rows", len(rows)).
		Msg("fact_production_performance upserted")
	return nil
}

// RefreshMaterialDims rebuilds dim_material from movements plus the
// channel master, and dim_product_hierarchy from the channel master
// with leading zeros stripped off the material codes.
func (t *Transformer) RefreshMaterialDims(ctx context.Context) error {
	movements, err := t.raw.FetchMovements(ctx)
	if err != nil {
		return fmt.Errorf("fetch movements for dims: %w", err)
	}
	channels, err := t.raw.FetchMaterialChannels(ctx)
	if err != nil {
		return fmt.Errorf("fetch material channels: %w", err)
	}

	seen := make(map[string]*domain.DimMaterial)
	var order []string
	for _, m := range movements {
		if m.Material == nil || *m.Material == "" {
			continue
		}
		code := *m.Material
		if _, ok := seen[code]; !ok {
			seen[code] = &domain.DimMaterial{MaterialCode: code, MaterialDesc: m.MaterialDesc, UOM: m.UOM}
			order = append(order, code)
		}
	}
	for _, c := range channels {
		code := c.Material
		dm, ok := seen[code]
		if !ok {
			dm = &domain.DimMaterial{MaterialCode: code, MaterialDesc: c.MaterialDesc, UOM: c.UOM}
			seen[code] = dm
			order = append(order, code)
		}
		ch := c.DistChannel
		dm.DistChannel = &ch
	}

	materials := make([]domain.DimMaterial, 0, len(order))
	for _, code := range order {
		materials = append(materials, *seen[code])
	}
	if err := t.wh.UpsertMaterials(ctx, materials); err != nil {
		return err
	}

	hierarchy := make([]domain.DimProductHierarchy, 0, len(channels))
	seenPH := make(map[string]bool, len(channels))
	for _, c := range channels {
		code := excel.StripLeadingZeros(c.Material)
		if code == "" || seenPH[code] {
			continue
		}
		seenPH[code] = true
		hierarchy = append(hierarchy, domain.DimProductHierarchy{
			MaterialCode: code,
			MaterialDesc: c.MaterialDesc,
			PHLevel1:     c.PH1,
			PHLevel2:     c.PH2,
			PHLevel3:     c.PH3,
		})
	}
	if err := t.wh.UpsertProductHierarchy(ctx, hierarchy); err != nil {
		return err
	}

	log.Info().Int("materials", len(materials)).Int("hierarchy", len(hierarchy)).
		Msg("material dimensions refreshed")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stripOrderRef drops the SAP zero padding from an order reference,
// keeping nil as nil.
func stripOrderRef(s *string) *string {
	if s == nil {
		return nil
	}
	v := excel.StripLeadingZeros(*s)
	return &v
}
