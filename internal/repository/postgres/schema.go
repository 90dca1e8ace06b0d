package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
)

// schemaDDL creates every raw, fact and dimension table. Statements are
// idempotent so init can run against an existing database.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS raw_cooispi (
		id BIGSERIAL PRIMARY KEY,
		plant INT,
		sales_order VARCHAR(50),
		order_number VARCHAR(50) NOT NULL,
		order_type VARCHAR(20),
		material_number VARCHAR(50),
		release_date_actual TIMESTAMP,
		actual_finish_date TIMESTAMP,
		material_description VARCHAR(200),
		bom_alternative INT,
		batch VARCHAR(50),
		system_status VARCHAR(200),
		mrp_controller VARCHAR(20),
		order_quantity NUMERIC(18,4),
		delivered_quantity NUMERIC(18,4),
		unit_of_measure VARCHAR(20),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_mb51 (
		id BIGSERIAL PRIMARY KEY,
		col_0_posting_date TIMESTAMP,
		col_1_mvt_type INT,
		col_2_plant INT,
		col_3_sloc INT,
		col_4_material VARCHAR(50),
		col_5_material_desc VARCHAR(200),
		col_6_batch VARCHAR(50),
		col_7_qty NUMERIC(18,4),
		col_8_uom VARCHAR(20),
		col_9_cost_center VARCHAR(50),
		col_10_gl_account VARCHAR(50),
		col_11_material_doc VARCHAR(50),
		col_12_reference VARCHAR(100),
		col_13_outbound_delivery VARCHAR(50),
		col_14 VARCHAR(100),
		col_15_purchase_order VARCHAR(50),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrmm024 (
		id BIGSERIAL PRIMARY KEY,
		purch_order VARCHAR(50),
		item INT,
		purch_date TIMESTAMP,
		suppl_plant INT,
		dest_plant INT,
		material VARCHAR(50),
		material_desc VARCHAR(200),
		qty_order NUMERIC(18,4),
		gross_weight NUMERIC(18,4),
		tonnage_order NUMERIC(18,4),
		qty_order_tol NUMERIC(18,4),
		delivery_date TIMESTAMP,
		qty_gi NUMERIC(18,4),
		tonnage_gi NUMERIC(18,4),
		qty_receipt NUMERIC(18,4),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrsd002 (
		id BIGSERIAL PRIMARY KEY,
		billing_date TIMESTAMP,
		billing_document VARCHAR(50),
		billing_item INT,
		sloc VARCHAR(20),
		sales_office VARCHAR(20),
		dist_channel VARCHAR(20),
		customer_name VARCHAR(200),
		cust_group VARCHAR(20),
		salesman_name VARCHAR(100),
		material VARCHAR(50),
		material_desc VARCHAR(200),
		prod_hierarchy VARCHAR(100),
		billing_qty NUMERIC(18,4),
		sales_unit VARCHAR(20),
		currency VARCHAR(10),
		exchange_rate NUMERIC(18,6),
		price NUMERIC(18,4),
		total_price NUMERIC(18,4),
		discount_item NUMERIC(18,4),
		net_value NUMERIC(18,4),
		tax NUMERIC(18,4),
		total NUMERIC(18,4),
		net_weight NUMERIC(18,4),
		weight_unit VARCHAR(20),
		volume NUMERIC(18,4),
		volume_unit VARCHAR(20),
		so_number VARCHAR(50),
		so_date TIMESTAMP,
		doc_reference_od VARCHAR(50),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrsd004 (
		id BIGSERIAL PRIMARY KEY,
		actual_gi_date TIMESTAMP,
		delivery VARCHAR(50),
		line_item INT,
		so_reference VARCHAR(50),
		shipping_point VARCHAR(20),
		sloc VARCHAR(20),
		sales_office VARCHAR(20),
		dist_channel VARCHAR(20),
		cust_group VARCHAR(20),
		sold_to_party VARCHAR(50),
		ship_to_party VARCHAR(50),
		ship_to_name VARCHAR(200),
		ship_to_city VARCHAR(100),
		salesman_id VARCHAR(50),
		salesman_name VARCHAR(100),
		material VARCHAR(50),
		material_desc VARCHAR(200),
		delivery_qty NUMERIC(18,4),
		tonase NUMERIC(18,4),
		tonase_unit VARCHAR(20),
		net_weight NUMERIC(18,4),
		volume NUMERIC(18,4),
		prod_hierarchy VARCHAR(100),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrsd006 (
		id BIGSERIAL PRIMARY KEY,
		material VARCHAR(50),
		material_desc VARCHAR(200),
		dist_channel VARCHAR(20),
		uom VARCHAR(20),
		ph1 VARCHAR(50), ph1_desc VARCHAR(100),
		ph2 VARCHAR(50), ph2_desc VARCHAR(100),
		ph3 VARCHAR(50), ph3_desc VARCHAR(100),
		ph4 VARCHAR(50), ph4_desc VARCHAR(100),
		ph5 VARCHAR(50), ph5_desc VARCHAR(100),
		ph6 VARCHAR(50), ph6_desc VARCHAR(100),
		ph7 VARCHAR(50), ph7_desc VARCHAR(100),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrfi005 (
		id BIGSERIAL PRIMARY KEY,
		dist_channel VARCHAR(20),
		cust_group VARCHAR(20),
		salesman_name VARCHAR(100),
		customer_name VARCHAR(200),
		currency VARCHAR(10),
		target_1_30 NUMERIC(18,4),
		target_31_60 NUMERIC(18,4),
		target_61_90 NUMERIC(18,4),
		target_91_120 NUMERIC(18,4),
		target_121_180 NUMERIC(18,4),
		target_over_180 NUMERIC(18,4),
		total_target NUMERIC(18,4),
		realization_not_due NUMERIC(18,4),
		realization_1_30 NUMERIC(18,4),
		realization_31_60 NUMERIC(18,4),
		realization_61_90 NUMERIC(18,4),
		realization_91_120 NUMERIC(18,4),
		realization_121_180 NUMERIC(18,4),
		realization_over_180 NUMERIC(18,4),
		total_realization NUMERIC(18,4),
		snapshot_date DATE,
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(64)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_target (
		id BIGSERIAL PRIMARY KEY,
		salesman_name VARCHAR(100),
		semester INT,
		year INT,
		target NUMERIC(18,4),
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_zrpp062 (
		id BIGSERIAL PRIMARY KEY,
		process_order VARCHAR(50),
		batch VARCHAR(50),
		material VARCHAR(50),
		material_description VARCHAR(200),
		order_sfg_liquid VARCHAR(50),
		mrp_controller VARCHAR(50),
		product_group_1 VARCHAR(100),
		product_group_2 VARCHAR(100),
		qty_order_sfg_liquid NUMERIC(18,4),
		process_order_qty NUMERIC(18,4),
		uom VARCHAR(20),
		gi_packaging_to_order NUMERIC(18,4),
		gi_sfg_liquid_to_order NUMERIC(18,4),
		gr_qty_to_0201 NUMERIC(18,4),
		tonase_alkana_0201 NUMERIC(18,4),
		sg_theoretical NUMERIC(10,4),
		sg_actual NUMERIC(10,4),
		variant_prod_sfg_pct NUMERIC(10,4),
		variant_fg_pct NUMERIC(10,4),
		loss_kg NUMERIC(18,4),
		loss_pct NUMERIC(10,4),
		system_status VARCHAR(100),
		posting_date DATE,
		source_file VARCHAR(100),
		source_row INT,
		loaded_at TIMESTAMP NOT NULL DEFAULT now(),
		raw_data JSONB,
		row_hash VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS upload_history (
		id BIGSERIAL PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		file_type VARCHAR(50) NOT NULL,
		file_size BIGINT,
		file_hash VARCHAR(64),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		uploaded_at TIMESTAMP NOT NULL DEFAULT now(),
		processed_at TIMESTAMP,
		rows_loaded INT NOT NULL DEFAULT 0,
		rows_updated INT NOT NULL DEFAULT 0,
		rows_skipped INT NOT NULL DEFAULT 0,
		rows_failed INT NOT NULL DEFAULT 0,
		error_message TEXT,
		uploaded_by VARCHAR(100),
		snapshot_date DATE
	)`,
	`CREATE TABLE IF NOT EXISTS fact_production (
		id BIGSERIAL PRIMARY KEY,
		plant_code INT NOT NULL,
		sales_order VARCHAR(50),
		order_number VARCHAR(50) NOT NULL,
		order_type VARCHAR(20),
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		release_date DATE,
		actual_finish_date DATE,
		batch VARCHAR(50),
		system_status VARCHAR(200),
		mrp_controller VARCHAR(20),
		order_qty NUMERIC(18,4),
		order_qty_kg NUMERIC(18,4),
		delivered_qty NUMERIC(18,4),
		delivered_qty_kg NUMERIC(18,4),
		uom VARCHAR(20),
		is_mto BOOLEAN NOT NULL DEFAULT false,
		order_status VARCHAR(20),
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		updated_at TIMESTAMP,
		UNIQUE (order_number, plant_code)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_inventory (
		id BIGSERIAL PRIMARY KEY,
		posting_date DATE NOT NULL,
		mvt_type INT NOT NULL,
		plant_code INT NOT NULL,
		sloc_code INT,
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		batch VARCHAR(50),
		qty NUMERIC(18,4),
		qty_kg NUMERIC(18,4),
		uom VARCHAR(20),
		material_document VARCHAR(50),
		reference VARCHAR(100),
		purchase_order VARCHAR(50),
		stock_impact INT NOT NULL DEFAULT 0,
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fact_purchase_order (
		id BIGSERIAL PRIMARY KEY,
		purch_order VARCHAR(50) NOT NULL,
		item INT NOT NULL,
		purch_date DATE,
		suppl_plant INT,
		dest_plant INT,
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		qty_order NUMERIC(18,4),
		delivery_date DATE,
		qty_gi NUMERIC(18,4),
		qty_receipt NUMERIC(18,4),
		is_sales_po BOOLEAN NOT NULL DEFAULT false,
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fact_billing (
		id BIGSERIAL PRIMARY KEY,
		billing_date DATE,
		billing_document VARCHAR(50) NOT NULL,
		billing_item INT NOT NULL,
		dist_channel VARCHAR(20),
		customer_name VARCHAR(200),
		cust_group VARCHAR(20),
		salesman_name VARCHAR(100),
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		prod_hierarchy VARCHAR(100),
		billing_qty NUMERIC(18,4),
		billing_qty_kg NUMERIC(18,4),
		sales_unit VARCHAR(20),
		net_value NUMERIC(18,4),
		total NUMERIC(18,4),
		net_weight NUMERIC(18,4),
		so_number VARCHAR(50),
		so_date DATE,
		doc_reference_od VARCHAR(50),
		semester INT,
		year INT,
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fact_delivery (
		id BIGSERIAL PRIMARY KEY,
		actual_gi_date DATE,
		delivery VARCHAR(50) NOT NULL,
		line_item INT NOT NULL,
		so_reference VARCHAR(50),
		dist_channel VARCHAR(20),
		cust_group VARCHAR(20),
		sold_to_party VARCHAR(50),
		ship_to_name VARCHAR(200),
		salesman_name VARCHAR(100),
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		delivery_qty NUMERIC(18,4),
		delivery_qty_kg NUMERIC(18,4),
		net_weight NUMERIC(18,4),
		prod_hierarchy VARCHAR(100),
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		UNIQUE (delivery, line_item)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_ar_aging (
		id BIGSERIAL PRIMARY KEY,
		dist_channel VARCHAR(20),
		cust_group VARCHAR(20),
		salesman_name VARCHAR(100),
		customer_name VARCHAR(200) NOT NULL,
		currency VARCHAR(10),
		total_target NUMERIC(18,4),
		total_realization NUMERIC(18,4),
		snapshot_date DATE NOT NULL,
		row_hash VARCHAR(64),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fact_target (
		id BIGSERIAL PRIMARY KEY,
		salesman_name VARCHAR(100) NOT NULL,
		semester INT NOT NULL,
		year INT NOT NULL,
		target NUMERIC(18,4),
		row_hash VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fact_lead_time (
		id BIGSERIAL PRIMARY KEY,
		material_code VARCHAR(50),
		plant_code INT,
		order_number VARCHAR(50),
		order_type VARCHAR(20),
		batch VARCHAR(50),
		channel_code VARCHAR(10),
		vendor VARCHAR(100),
		start_date DATE,
		end_date DATE,
		lead_time_days INT NOT NULL DEFAULT 0,
		preparation_days INT NOT NULL DEFAULT 0,
		production_days INT NOT NULL DEFAULT 0,
		transit_days INT NOT NULL DEFAULT 0,
		storage_days INT NOT NULL DEFAULT 0,
		delivery_days INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		CONSTRAINT uq_lead_time_order_batch UNIQUE (order_number, batch)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_production_performance (
		id BIGSERIAL PRIMARY KEY,
		process_order_id VARCHAR(50) NOT NULL,
		batch_id VARCHAR(50),
		material_code VARCHAR(50),
		material_description VARCHAR(200),
		parent_order_id VARCHAR(50),
		mrp_controller VARCHAR(50),
		product_group_1 VARCHAR(100),
		product_group_2 VARCHAR(100),
		output_actual_kg NUMERIC(15,3),
		input_actual_kg NUMERIC(15,3),
		process_order_qty NUMERIC(15,3),
		loss_kg NUMERIC(15,3),
		loss_pct NUMERIC(10,4),
		sg_theoretical NUMERIC(10,4),
		sg_actual NUMERIC(10,4),
		posting_date DATE,
		reference_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		updated_at TIMESTAMP,
		CONSTRAINT uq_perf_order_batch UNIQUE (process_order_id, batch_id)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_alerts (
		id BIGSERIAL PRIMARY KEY,
		alert_type VARCHAR(50) NOT NULL,
		severity VARCHAR(20),
		status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
		entity_type VARCHAR(50),
		entity_id VARCHAR(50),
		batch VARCHAR(50),
		material VARCHAR(50),
		plant INT,
		stuck_hours NUMERIC(10,2),
		threshold NUMERIC(10,2),
		detected_at TIMESTAMP NOT NULL DEFAULT now(),
		resolved_at TIMESTAMP,
		message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS dim_plant (
		plant_code INT PRIMARY KEY,
		plant_name VARCHAR(50),
		plant_role VARCHAR(20),
		description VARCHAR(200)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_mvt (
		mvt_code INT PRIMARY KEY,
		description VARCHAR(200),
		stock_impact INT NOT NULL DEFAULT 0,
		reversal_mvt INT,
		category VARCHAR(50)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_material (
		material_code VARCHAR(50) PRIMARY KEY,
		material_description VARCHAR(200),
		dist_channel VARCHAR(20),
		uom VARCHAR(20),
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS dim_uom_conversion (
		material_code VARCHAR(50) PRIMARY KEY,
		material_description VARCHAR(200),
		base_uom VARCHAR(20),
		kg_per_unit NUMERIC(18,6) NOT NULL,
		source VARCHAR(20) NOT NULL DEFAULT 'billing',
		sample_count INT NOT NULL DEFAULT 0,
		variance_pct NUMERIC(10,2),
		last_updated TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS dim_product_hierarchy (
		material_code VARCHAR(50) PRIMARY KEY,
		material_description TEXT,
		ph_level_1 VARCHAR(100),
		ph_level_2 VARCHAR(100),
		ph_level_3 VARCHAR(100),
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_cooispi_order ON raw_cooispi (order_number)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_mb51_batch ON raw_mb51 (col_6_batch)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_mb51_hash ON raw_mb51 (row_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_zrmm024_po ON raw_zrmm024 (purch_order, item)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_zrsd002_doc ON raw_zrsd002 (billing_document, billing_item)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_zrfi005_snapshot ON raw_zrfi005 (snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_inventory_batch ON fact_inventory (batch, plant_code)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_inventory_mvt ON fact_inventory (mvt_type)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_billing_so ON fact_billing (so_number)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_lead_time_type ON fact_lead_time (order_type)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_alerts_status ON fact_alerts (status, alert_type)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_ar_aging_snapshot ON fact_ar_aging (snapshot_date)`,
}

// InitSchema creates all warehouse tables and indexes.
func InitSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}
	log.Info().Int("statements", len(schemaDDL)).Msg("schema initialized")
	return nil
}

// mvtDescriptions labels the movement codes seeded into dim_mvt.
var mvtDescriptions = map[int]string{
	101: "Goods receipt",
	102: "Goods receipt reversal",
	201: "GI for cost center",
	202: "GI for cost center reversal",
	261: "GI for production order",
	262: "GI for production order reversal",
	301: "Transfer plant to plant",
	302: "Transfer plant to plant reversal",
	311: "Transfer sloc to sloc",
	312: "Transfer sloc to sloc reversal",
	351: "Transfer to cross-plant",
	352: "Transfer to cross-plant reversal",
	601: "GD goods issue delivery",
	602: "GD goods issue delivery reversal",
}

// SeedDimensions upserts dim_plant and dim_mvt from the rule set.
func SeedDimensions(ctx context.Context, db *DB, rules domain.Rules) error {
	for plant, role := range rules.PlantRoles {
		_, err := db.ExecContext(ctx, `
			INSERT INTO dim_plant (plant_code, plant_role)
			VALUES ($1, $2)
			ON CONFLICT (plant_code) DO UPDATE SET plant_role = EXCLUDED.plant_role`,
			plant, role)
		if err != nil {
			return fmt.Errorf("seed dim_plant %d: %w", plant, err)
		}
	}

	for mvt, impact := range rules.StockImpacts {
		var reversal *int
		if rev, ok := rules.ReversalPair(mvt); ok {
			reversal = &rev
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO dim_mvt (mvt_code, description, stock_impact, reversal_mvt, category)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (mvt_code) DO UPDATE SET
				description = EXCLUDED.description,
				stock_impact = EXCLUDED.stock_impact,
				reversal_mvt = EXCLUDED.reversal_mvt,
				category = EXCLUDED.category`,
			mvt, mvtDescriptions[mvt], impact, reversal, rules.MvtCategory(mvt))
		if err != nil {
			return fmt.Errorf("seed dim_mvt %d: %w", mvt, err)
		}
	}

	log.Info().Msg("dimension tables seeded")
	return nil
}
