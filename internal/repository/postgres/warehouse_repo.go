package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
)

// WarehouseRepo owns the fact_* and dim_* write paths. Each fact keeps
// the idempotency contract its source requires: billing, purchase and
// inventory rebuild wholesale, production and delivery upsert in place,
// AR aging replaces one snapshot at a time.
type WarehouseRepo struct {
	db *DB
}

func NewWarehouseRepo(db *DB) *WarehouseRepo {
	return &WarehouseRepo{db: db}
}

const insertProductionSQL = `
	INSERT INTO fact_production (
		plant_code, sales_order, order_number, order_type, material_code,
		material_description, release_date, actual_finish_date, batch,
		system_status, mrp_controller, order_qty, order_qty_kg,
		delivered_qty, delivered_qty_kg, uom, is_mto, order_status, row_hash
	) VALUES (
		:plant_code, :sales_order, :order_number, :order_type, :material_code,
		:material_description, :release_date, :actual_finish_date, :batch,
		:system_status, :mrp_controller, :order_qty, :order_qty_kg,
		:delivered_qty, :delivered_qty_kg, :uom, :is_mto, :order_status, :row_hash
	)
	ON CONFLICT (order_number, plant_code) DO UPDATE SET
		sales_order = EXCLUDED.sales_order,
		order_type = EXCLUDED.order_type,
		material_code = EXCLUDED.material_code,
		material_description = EXCLUDED.material_description,
		release_date = EXCLUDED.release_date,
		actual_finish_date = EXCLUDED.actual_finish_date,
		batch = EXCLUDED.batch,
		system_status = EXCLUDED.system_status,
		mrp_controller = EXCLUDED.mrp_controller,
		order_qty = EXCLUDED.order_qty,
		order_qty_kg = EXCLUDED.order_qty_kg,
		delivered_qty = EXCLUDED.delivered_qty,
		delivered_qty_kg = EXCLUDED.delivered_qty_kg,
		uom = EXCLUDED.uom,
		is_mto = EXCLUDED.is_mto,
		order_status = EXCLUDED.order_status,
		row_hash = EXCLUDED.row_hash,
		updated_at = now()`

// UpsertProduction writes production facts in place. Rows whose content
// hash already exists are skipped.
func (r *WarehouseRepo) UpsertProduction(ctx context.Context, rows []domain.FactProduction) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			var exists bool
			err := tx.GetContext(ctx, &exists,
				`SELECT true FROM fact_production WHERE row_hash = $1 LIMIT 1`, row.RowHash)
			if err == nil && exists {
				continue
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("production hash lookup: %w", err)
			}
			if _, err := tx.NamedExecContext(ctx, insertProductionSQL, row); err != nil {
				return fmt.Errorf("upsert production order %s: %w", row.OrderNumber, err)
			}
		}
		return nil
	})
}

const insertInventorySQL = `
	INSERT INTO fact_inventory (
		posting_date, mvt_type, plant_code, sloc_code, material_code,
		material_description, batch, qty, qty_kg, uom, material_document,
		reference, purchase_order, stock_impact, row_hash
	) VALUES (
		:posting_date, :mvt_type, :plant_code, :sloc_code, :material_code,
		:material_description, :batch, :qty, :qty_kg, :uom, :material_document,
		:reference, :purchase_order, :stock_impact, :row_hash
	)`

// ReplaceInventory rebuilds the movement fact from scratch. Every raw
// movement becomes exactly one fact row, reversals included.
func (r *WarehouseRepo) ReplaceInventory(ctx context.Context, rows []domain.FactInventory) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_inventory`); err != nil {
			return fmt.Errorf("clear fact_inventory: %w", err)
		}
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertInventorySQL, row); err != nil {
				return fmt.Errorf("insert movement %v/%d: %w", row.PostingDate, row.MvtType, err)
			}
		}
		return nil
	})
}

const insertPurchaseSQL = `
	INSERT INTO fact_purchase_order (
		purch_order, item, purch_date, suppl_plant, dest_plant,
		material_code, material_description, qty_order, delivery_date,
		qty_gi, qty_receipt, is_sales_po, row_hash
	) VALUES (
		:purch_order, :item, :purch_date, :suppl_plant, :dest_plant,
		:material_code, :material_description, :qty_order, :delivery_date,
		:qty_gi, :qty_receipt, :is_sales_po, :row_hash
	)`

// ReplacePurchaseOrders rebuilds the purchase order fact.
func (r *WarehouseRepo) ReplacePurchaseOrders(ctx context.Context, rows []domain.FactPurchaseOrder) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_purchase_order`); err != nil {
			return fmt.Errorf("clear fact_purchase_order: %w", err)
		}
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertPurchaseSQL, row); err != nil {
				return fmt.Errorf("insert purchase order %s/%d: %w", row.PurchOrder, row.Item, err)
			}
		}
		return nil
	})
}

const insertBillingSQL = `
	INSERT INTO fact_billing (
		billing_date, billing_document, billing_item, dist_channel,
		customer_name, cust_group, salesman_name, material_code,
		material_description, prod_hierarchy, billing_qty, billing_qty_kg,
		sales_unit, net_value, total, net_weight, so_number, so_date,
		doc_reference_od, semester, year, row_hash
	) VALUES (
		:billing_date, :billing_document, :billing_item, :dist_channel,
		:customer_name, :cust_group, :salesman_name, :material_code,
		:material_description, :prod_hierarchy, :billing_qty, :billing_qty_kg,
		:sales_unit, :net_value, :total, :net_weight, :so_number, :so_date,
		:doc_reference_od, :semester, :year, :row_hash
	)`

// ReplaceBilling purges and rebuilds the billing fact; re-running the
// transform never duplicates lines.
func (r *WarehouseRepo) ReplaceBilling(ctx context.Context, rows []domain.FactBilling) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_billing`); err != nil {
			return fmt.Errorf("clear fact_billing: %w", err)
		}
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertBillingSQL, row); err != nil {
				return fmt.Errorf("insert billing %s/%d: %w", row.BillingDoc, row.BillingItem, err)
			}
		}
		return nil
	})
}

const insertDeliverySQL = `
	INSERT INTO fact_delivery (
		actual_gi_date, delivery, line_item, so_reference, dist_channel,
		cust_group, sold_to_party, ship_to_name, salesman_name,
		material_code, material_description, delivery_qty, delivery_qty_kg,
		net_weight, prod_hierarchy, row_hash
	) VALUES (
		:actual_gi_date, :delivery, :line_item, :so_reference, :dist_channel,
		:cust_group, :sold_to_party, :ship_to_name, :salesman_name,
		:material_code, :material_description, :delivery_qty, :delivery_qty_kg,
		:net_weight, :prod_hierarchy, :row_hash
	)
	ON CONFLICT (delivery, line_item) DO UPDATE SET
		actual_gi_date = EXCLUDED.actual_gi_date,
		so_reference = EXCLUDED.so_reference,
		dist_channel = EXCLUDED.dist_channel,
		cust_group = EXCLUDED.cust_group,
		sold_to_party = EXCLUDED.sold_to_party,
		ship_to_name = EXCLUDED.ship_to_name,
		salesman_name = EXCLUDED.salesman_name,
		material_code = EXCLUDED.material_code,
		material_description = EXCLUDED.material_description,
		delivery_qty = EXCLUDED.delivery_qty,
		delivery_qty_kg = EXCLUDED.delivery_qty_kg,
		net_weight = EXCLUDED.net_weight,
		prod_hierarchy = EXCLUDED.prod_hierarchy,
		row_hash = EXCLUDED.row_hash`

// UpsertDeliveries writes delivery facts by (delivery, line_item);
// unchanged rows (same hash) are skipped.
func (r *WarehouseRepo) UpsertDeliveries(ctx context.Context, rows []domain.FactDelivery) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			var exists bool
			err := tx.GetContext(ctx, &exists,
				`SELECT true FROM fact_delivery WHERE row_hash = $1 LIMIT 1`, row.RowHash)
			if err == nil && exists {
				continue
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("delivery hash lookup: %w", err)
			}
			if _, err := tx.NamedExecContext(ctx, insertDeliverySQL, row); err != nil {
				return fmt.Errorf("upsert delivery %s/%d: %w", row.Delivery, row.LineItem, err)
			}
		}
		return nil
	})
}

const insertARAgingSQL = `
	INSERT INTO fact_ar_aging (
		dist_channel, cust_group, salesman_name, customer_name, currency,
		total_target, total_realization, snapshot_date, row_hash
	) VALUES (
		:dist_channel, :cust_group, :salesman_name, :customer_name, :currency,
		:total_target, :total_realization, :snapshot_date, :row_hash
	)`

// ReplaceARSnapshot rebuilds one snapshot date; other snapshots stay
// untouched so history accumulates.
func (r *WarehouseRepo) ReplaceARSnapshot(ctx context.Context, snapshot time.Time, rows []domain.FactARAging) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM fact_ar_aging WHERE snapshot_date = $1`, snapshot); err != nil {
			return fmt.Errorf("clear ar snapshot %s: %w", snapshot.Format("2006-01-02"), err)
		}
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertARAgingSQL, row); err != nil {
				return fmt.Errorf("insert ar aging %s: %w", row.CustomerName, err)
			}
		}
		return nil
	})
}

// ReplaceTargets rebuilds the sales target fact.
func (r *WarehouseRepo) ReplaceTargets(ctx context.Context, rows []domain.FactTarget) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_target`); err != nil {
			return fmt.Errorf("clear fact_target: %w", err)
		}
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO fact_target (salesman_name, semester, year, target, row_hash)
				VALUES (:salesman_name, :semester, :year, :target, :row_hash)`, row); err != nil {
				return fmt.Errorf("insert target %s: %w", row.SalesmanName, err)
			}
		}
		return nil
	})
}

const insertPerformanceSQL = `
	INSERT INTO fact_production_performance (
		process_order_id, batch_id, material_code, material_description,
		parent_order_id, mrp_controller, product_group_1, product_group_2,
		output_actual_kg, input_actual_kg, process_order_qty, loss_kg,
		loss_pct, sg_theoretical, sg_actual, posting_date, reference_date
	) VALUES (
		:process_order_id, :batch_id, :material_code, :material_description,
		:parent_order_id, :mrp_controller, :product_group_1, :product_group_2,
		:output_actual_kg, :input_actual_kg, :process_order_qty, :loss_kg,
		:loss_pct, :sg_theoretical, :sg_actual, :posting_date, :reference_date
	)
	ON CONFLICT (process_order_id, batch_id) DO UPDATE SET
		material_code = EXCLUDED.material_code,
		material_description = EXCLUDED.material_description,
		parent_order_id = EXCLUDED.parent_order_id,
		mrp_controller = EXCLUDED.mrp_controller,
		product_group_1 = EXCLUDED.product_group_1,
		product_group_2 = EXCLUDED.product_group_2,
		output_actual_kg = EXCLUDED.output_actual_kg,
		input_actual_kg = EXCLUDED.input_actual_kg,
		process_order_qty = EXCLUDED.process_order_qty,
		loss_kg = EXCLUDED.loss_kg,
		loss_pct = EXCLUDED.loss_pct,
		sg_theoretical = EXCLUDED.sg_theoretical,
		sg_actual = EXCLUDED.sg_actual,
		posting_date = EXCLUDED.posting_date,
		reference_date = EXCLUDED.reference_date,
		updated_at = now()`

// UpsertPerformance writes variance rows keyed by order and batch, so
// re-uploading a reporting period updates rather than duplicates.
func (r *WarehouseRepo) UpsertPerformance(ctx context.Context, rows []domain.FactPerformance) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertPerformanceSQL, row); err != nil {
				return fmt.Errorf("upsert performance %s: %w", row.ProcessOrderID, err)
			}
		}
		return nil
	})
}

// TruncateLeadTimes clears the lead-time fact before a recompute.
func (r *WarehouseRepo) TruncateLeadTimes(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fact_lead_time`); err != nil {
		return fmt.Errorf("clear fact_lead_time: %w", err)
	}
	return nil
}

const insertLeadTimeSQL = `
	INSERT INTO fact_lead_time (
		material_code, plant_code, order_number, order_type, batch,
		channel_code, vendor, start_date, end_date, lead_time_days,
		preparation_days, production_days, transit_days, storage_days,
		delivery_days
	) VALUES (
		:material_code, :plant_code, :order_number, :order_type, :batch,
		:channel_code, :vendor, :start_date, :end_date, :lead_time_days,
		:preparation_days, :production_days, :transit_days, :storage_days,
		:delivery_days
	)`

// InsertLeadTimes appends one batch of rows in a single transaction.
// The caller chunks the full result so progress commits incrementally.
func (r *WarehouseRepo) InsertLeadTimes(ctx context.Context, rows []domain.FactLeadTime) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insertLeadTimeSQL, row); err != nil {
				return fmt.Errorf("insert lead time row: %w", err)
			}
		}
		return nil
	})
}

// UpsertUOMConversions refreshes the conversion dimension.
func (r *WarehouseRepo) UpsertUOMConversions(ctx context.Context, rows []domain.DimUOMConversion) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO dim_uom_conversion (
					material_code, material_description, base_uom, kg_per_unit,
					source, sample_count, variance_pct, last_updated
				) VALUES (
					:material_code, :material_description, :base_uom, :kg_per_unit,
					:source, :sample_count, :variance_pct, now()
				)
				ON CONFLICT (material_code) DO UPDATE SET
					material_description = EXCLUDED.material_description,
					base_uom = EXCLUDED.base_uom,
					kg_per_unit = EXCLUDED.kg_per_unit,
					source = EXCLUDED.source,
					sample_count = EXCLUDED.sample_count,
					variance_pct = EXCLUDED.variance_pct,
					last_updated = now()`, row); err != nil {
				return fmt.Errorf("upsert uom conversion %s: %w", row.MaterialCode, err)
			}
		}
		return nil
	})
}

// UpsertMaterials refreshes the material dimension.
func (r *WarehouseRepo) UpsertMaterials(ctx context.Context, rows []domain.DimMaterial) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO dim_material (material_code, material_description, dist_channel, uom)
				VALUES (:material_code, :material_description, :dist_channel, :uom)
				ON CONFLICT (material_code) DO UPDATE SET
					material_description = COALESCE(EXCLUDED.material_description, dim_material.material_description),
					dist_channel = COALESCE(EXCLUDED.dist_channel, dim_material.dist_channel),
					uom = COALESCE(EXCLUDED.uom, dim_material.uom)`, row); err != nil {
				return fmt.Errorf("upsert material %s: %w", row.MaterialCode, err)
			}
		}
		return nil
	})
}

// UpsertProductHierarchy refreshes the product hierarchy dimension.
func (r *WarehouseRepo) UpsertProductHierarchy(ctx context.Context, rows []domain.DimProductHierarchy) error {
	return r.db.WithTxx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO dim_product_hierarchy (
					material_code, material_description, ph_level_1, ph_level_2, ph_level_3
				) VALUES (
					:material_code, :material_description, :ph_level_1, :ph_level_2, :ph_level_3
				)
				ON CONFLICT (material_code) DO UPDATE SET
					material_description = EXCLUDED.material_description,
					ph_level_1 = EXCLUDED.ph_level_1,
					ph_level_2 = EXCLUDED.ph_level_2,
					ph_level_3 = EXCLUDED.ph_level_3,
					updated_at = now()`, row); err != nil {
				return fmt.Errorf("upsert product hierarchy %s: %w", row.MaterialCode, err)
			}
		}
		return nil
	})
}

// ActiveAlertExists reports whether an unresolved alert with the same
// type and entity is already open.
func (r *WarehouseRepo) ActiveAlertExists(ctx context.Context, alertType, entityID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT true FROM fact_alerts
		WHERE alert_type = $1 AND entity_id = $2 AND status = 'ACTIVE'
		LIMIT 1`, alertType, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}

// InsertAlert opens a new alert.
func (r *WarehouseRepo) InsertAlert(ctx context.Context, a domain.Alert) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO fact_alerts (
			alert_type, severity, status, entity_type, entity_id, batch,
			material, plant, stuck_hours, threshold, detected_at, message
		) VALUES (
			:alert_type, :severity, :status, :entity_type, :entity_id, :batch,
			:material, :plant, :stuck_hours, :threshold, :detected_at, :message
		)`, a)
	if err != nil {
		return fmt.Errorf("insert alert %s/%s: %w", a.AlertType, a.EntityID, err)
	}
	return nil
}

// warehouseTables lists fact and dim tables in truncation order.
var warehouseTables = []string{
	"fact_lead_time", "fact_alerts", "fact_production_performance",
	"fact_ar_aging", "fact_target", "fact_delivery", "fact_billing",
	"fact_purchase_order", "fact_inventory", "fact_production",
	"dim_uom_conversion", "dim_material", "dim_product_hierarchy",
}

// TruncateWarehouse clears every fact and derived dimension table.
func (r *WarehouseRepo) TruncateWarehouse(ctx context.Context) error {
	for _, table := range warehouseTables {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
		log.Debug().Str("table", table).Msg("warehouse table cleared")
	}
	return nil
}
