package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Payload carries the full source row (original header -> raw value) and
// maps to a JSONB column.
type Payload map[string]string

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *Payload) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("payload: cannot scan %T", src)
	}
}

// RowMeta is the audit tail shared by every raw table.
type RowMeta struct {
	SourceFile string    `db:"source_file"`
	SourceRow  int       `db:"source_row"`
	LoadedAt   time.Time `db:"loaded_at"`
	RawData    Payload   `db:"raw_data"`
	RowHash    string    `db:"row_hash"`
}

// RawProduction mirrors raw_cooispi: one production order per row,
// keyed by order number.
type RawProduction struct {
	ID               int64      `db:"id"`
	Plant            *int       `db:"plant"`
	SalesOrder       *string    `db:"sales_order"`
	OrderNumber      string     `db:"order_number"`
	OrderType        *string    `db:"order_type"`
	MaterialNumber   *string    `db:"material_number"`
	ReleaseDate      *time.Time `db:"release_date_actual"`
	ActualFinishDate *time.Time `db:"actual_finish_date"`
	MaterialDesc     *string    `db:"material_description"`
	BOMAlternative   *int       `db:"bom_alternative"`
	Batch            *string    `db:"batch"`
	SystemStatus     *string    `db:"system_status"`
	MRPController    *string    `db:"mrp_controller"`
	OrderQty         *float64   `db:"order_quantity"`
	DeliveredQty     *float64   `db:"delivered_quantity"`
	UOM              *string    `db:"unit_of_measure"`
	RowMeta
}

// RawMovement mirrors raw_mb51. The source workbook has no header row,
// so columns keep their positional names.
type RawMovement struct {
	ID               int64      `db:"id"`
	PostingDate      *time.Time `db:"col_0_posting_date"`
	MvtType          *int       `db:"col_1_mvt_type"`
	Plant            *int       `db:"col_2_plant"`
	Sloc             *int       `db:"col_3_sloc"`
	Material         *string    `db:"col_4_material"`
	MaterialDesc     *string    `db:"col_5_material_desc"`
	Batch            *string    `db:"col_6_batch"`
	Qty              *float64   `db:"col_7_qty"`
	UOM              *string    `db:"col_8_uom"`
	CostCenter       *string    `db:"col_9_cost_center"`
	GLAccount        *string    `db:"col_10_gl_account"`
	MaterialDoc      *string    `db:"col_11_material_doc"`
	Reference        *string    `db:"col_12_reference"`
	OutboundDelivery *string    `db:"col_13_outbound_delivery"`
	Col14            *string    `db:"col_14"`
	PurchaseOrder    *string    `db:"col_15_purchase_order"`
	RowMeta
}

// RawPurchase mirrors raw_zrmm024, keyed by (purch_order, item).
type RawPurchase struct {
	ID           int64      `db:"id"`
	PurchOrder   string     `db:"purch_order"`
	Item         int        `db:"item"`
	PurchDate    *time.Time `db:"purch_date"`
	SupplPlant   *int       `db:"suppl_plant"`
	DestPlant    *int       `db:"dest_plant"`
	Material     *string    `db:"material"`
	MaterialDesc *string    `db:"material_desc"`
	QtyOrder     *float64   `db:"qty_order"`
	GrossWeight  *float64   `db:"gross_weight"`
	TonnageOrder *float64   `db:"tonnage_order"`
	QtyOrderTol  *float64   `db:"qty_order_tol"`
	DeliveryDate *time.Time `db:"delivery_date"`
	QtyGI        *float64   `db:"qty_gi"`
	TonnageGI    *float64   `db:"tonnage_gi"`
	QtyReceipt   *float64   `db:"qty_receipt"`
	RowMeta
}

// RawBilling mirrors raw_zrsd002, keyed by (billing_document, billing_item).
type RawBilling struct {
	ID             int64      `db:"id"`
	BillingDate    *time.Time `db:"billing_date"`
	BillingDoc     string     `db:"billing_document"`
	BillingItem    int        `db:"billing_item"`
	Sloc           *string    `db:"sloc"`
	SalesOffice    *string    `db:"sales_office"`
	DistChannel    *string    `db:"dist_channel"`
	CustomerName   *string    `db:"customer_name"`
	CustGroup      *string    `db:"cust_group"`
	SalesmanName   *string    `db:"salesman_name"`
	Material       *string    `db:"material"`
	MaterialDesc   *string    `db:"material_desc"`
	ProdHierarchy  *string    `db:"prod_hierarchy"`
	BillingQty     *float64   `db:"billing_qty"`
	SalesUnit      *string    `db:"sales_unit"`
	Currency       *string    `db:"currency"`
	ExchangeRate   *float64   `db:"exchange_rate"`
	Price          *float64   `db:"price"`
	TotalPrice     *float64   `db:"total_price"`
	DiscountItem   *float64   `db:"discount_item"`
	NetValue       *float64   `db:"net_value"`
	Tax            *float64   `db:"tax"`
	Total          *float64   `db:"total"`
	NetWeight      *float64   `db:"net_weight"`
	WeightUnit     *string    `db:"weight_unit"`
	Volume         *float64   `db:"volume"`
	VolumeUnit     *string    `db:"volume_unit"`
	SONumber       *string    `db:"so_number"`
	SODate         *time.Time `db:"so_date"`
	DocReferenceOD *string    `db:"doc_reference_od"`
	RowMeta
}

// RawDelivery mirrors raw_zrsd004, keyed by (delivery, line_item).
type RawDelivery struct {
	ID            int64      `db:"id"`
	ActualGIDate  *time.Time `db:"actual_gi_date"`
	Delivery      string     `db:"delivery"`
	LineItem      int        `db:"line_item"`
	SOReference   *string    `db:"so_reference"`
	ShippingPoint *string    `db:"shipping_point"`
	Sloc          *string    `db:"sloc"`
	SalesOffice   *string    `db:"sales_office"`
	DistChannel   *string    `db:"dist_channel"`
	CustGroup     *string    `db:"cust_group"`
	SoldToParty   *string    `db:"sold_to_party"`
	ShipToParty   *string    `db:"ship_to_party"`
	ShipToName    *string    `db:"ship_to_name"`
	ShipToCity    *string    `db:"ship_to_city"`
	SalesmanID    *string    `db:"salesman_id"`
	SalesmanName  *string    `db:"salesman_name"`
	Material      *string    `db:"material"`
	MaterialDesc  *string    `db:"material_desc"`
	DeliveryQty   *float64   `db:"delivery_qty"`
	Tonase        *float64   `db:"tonase"`
	TonaseUnit    *string    `db:"tonase_unit"`
	NetWeight     *float64   `db:"net_weight"`
	Volume        *float64   `db:"volume"`
	ProdHierarchy *string    `db:"prod_hierarchy"`
	RowMeta
}

// RawMaterialChannel mirrors raw_zrsd006, keyed by (material, dist_channel).
type RawMaterialChannel struct {
	ID           int64   `db:"id"`
	Material     string  `db:"material"`
	MaterialDesc *string `db:"material_desc"`
	DistChannel  string  `db:"dist_channel"`
	UOM          *string `db:"uom"`
	PH1          *string `db:"ph1"`
	PH1Desc      *string `db:"ph1_desc"`
	PH2          *string `db:"ph2"`
	PH2Desc      *string `db:"ph2_desc"`
	PH3          *string `db:"ph3"`
	PH3Desc      *string `db:"ph3_desc"`
	PH4          *string `db:"ph4"`
	PH4Desc      *string `db:"ph4_desc"`
	PH5          *string `db:"ph5"`
	PH5Desc      *string `db:"ph5_desc"`
	PH6          *string `db:"ph6"`
	PH6Desc      *string `db:"ph6_desc"`
	PH7          *string `db:"ph7"`
	PH7Desc      *string `db:"ph7_desc"`
	RowMeta
}

// RawARAging mirrors raw_zrfi005, keyed by customer/channel/group/salesman
// plus the snapshot date.
type RawARAging struct {
	ID                 int64      `db:"id"`
	DistChannel        *string    `db:"dist_channel"`
	CustGroup          *string    `db:"cust_group"`
	SalesmanName       *string    `db:"salesman_name"`
	CustomerName       string     `db:"customer_name"`
	Currency           *string    `db:"currency"`
	Target1To30         *float64   `db:"target_1_30"`
	Target31To60        *float64   `db:"target_31_60"`
	Target61To90        *float64   `db:"target_61_90"`
	Target91To120       *float64   `db:"target_91_120"`
	Target121To180      *float64   `db:"target_121_180"`
	TargetOver180       *float64   `db:"target_over_180"`
	TotalTarget         *float64   `db:"total_target"`
	RealizationNotDue   *float64   `db:"realization_not_due"`
	Realization1To30    *float64   `db:"realization_1_30"`
	Realization31To60   *float64   `db:"realization_31_60"`
	Realization61To90   *float64   `db:"realization_61_90"`
	Realization91To120  *float64   `db:"realization_91_120"`
	Realization121To180 *float64   `db:"realization_121_180"`
	RealizationOver180  *float64   `db:"realization_over_180"`
	TotalRealization    *float64   `db:"total_realization"`
	SnapshotDate        *time.Time `db:"snapshot_date"`
	RowMeta
}

// RawTarget mirrors raw_target, keyed by (salesman_name, semester, year).
type RawTarget struct {
	ID           int64    `db:"id"`
	SalesmanName string   `db:"salesman_name"`
	Semester     int      `db:"semester"`
	Year         int      `db:"year"`
	Target       *float64 `db:"target"`
	RowMeta
}

// RawPerformance mirrors raw_zrpp062: production variance rows keyed by
// (process_order, batch).
type RawPerformance struct {
	ID                int64      `db:"id"`
	ProcessOrder      string     `db:"process_order"`
	Batch             *string    `db:"batch"`
	Material          *string    `db:"material"`
	MaterialDesc      *string    `db:"material_description"`
	OrderSFGLiquid    *string    `db:"order_sfg_liquid"`
	MRPController     *string    `db:"mrp_controller"`
	ProductGroup1     *string    `db:"product_group_1"`
	ProductGroup2     *string    `db:"product_group_2"`
	QtyOrderSFGLiquid *float64   `db:"qty_order_sfg_liquid"`
	ProcessOrderQty   *float64   `db:"process_order_qty"`
	UOM               *string    `db:"uom"`
	GIPackaging       *float64   `db:"gi_packaging_to_order"`
	GISFGLiquid       *float64   `db:"gi_sfg_liquid_to_order"`
	GRQty             *float64   `db:"gr_qty_to_0201"`
	OutputActualKG    *float64   `db:"tonase_alkana_0201"`
	SGTheoretical     *float64   `db:"sg_theoretical"`
	SGActual          *float64   `db:"sg_actual"`
	VariantProdSFGPct *float64   `db:"variant_prod_sfg_pct"`
	VariantFGPct      *float64   `db:"variant_fg_pct"`
	LossKG            *float64   `db:"loss_kg"`
	LossPct           *float64   `db:"loss_pct"`
	SystemStatus      *string    `db:"system_status"`
	PostingDate       *time.Time `db:"posting_date"`
	RowMeta
}

// FactProduction is one production order with classification flags.
type FactProduction struct {
	ID             int64       `db:"id"`
	PlantCode      int         `db:"plant_code"`
	SalesOrder     *string     `db:"sales_order"`
	OrderNumber    string      `db:"order_number"`
	OrderType      *string     `db:"order_type"`
	MaterialCode   *string     `db:"material_code"`
	MaterialDesc   *string     `db:"material_description"`
	ReleaseDate    *time.Time  `db:"release_date"`
	FinishDate     *time.Time  `db:"actual_finish_date"`
	Batch          *string     `db:"batch"`
	SystemStatus   *string     `db:"system_status"`
	MRPController  *string     `db:"mrp_controller"`
	OrderQty       *float64    `db:"order_qty"`
	OrderQtyKG     *float64    `db:"order_qty_kg"`
	DeliveredQty   *float64    `db:"delivered_qty"`
	DeliveredQtyKG *float64    `db:"delivered_qty_kg"`
	UOM            *string     `db:"uom"`
	IsMTO          bool        `db:"is_mto"`
	OrderStatus    OrderStatus `db:"order_status"`
	RowHash        string      `db:"row_hash"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      *time.Time  `db:"updated_at"`
}

// FactInventory is one material movement. Every movement keeps its true
// mvt_type; netting flags live beside the event rather than replacing it.
type FactInventory struct {
	ID            int64      `db:"id"`
	PostingDate   time.Time  `db:"posting_date"`
	MvtType       int        `db:"mvt_type"`
	PlantCode     int        `db:"plant_code"`
	SlocCode      *int       `db:"sloc_code"`
	MaterialCode  *string    `db:"material_code"`
	MaterialDesc  *string    `db:"material_description"`
	Batch         *string    `db:"batch"`
	Qty           *float64   `db:"qty"`
	QtyKG         *float64   `db:"qty_kg"`
	UOM           *string    `db:"uom"`
	MaterialDoc   *string    `db:"material_document"`
	Reference     *string    `db:"reference"`
	PurchaseOrder *string    `db:"purchase_order"`
	StockImpact   int        `db:"stock_impact"`
	RowHash       string     `db:"row_hash"`
	CreatedAt     time.Time  `db:"created_at"`
}

// FactPurchaseOrder is one purchase order line.
type FactPurchaseOrder struct {
	ID           int64      `db:"id"`
	PurchOrder   string     `db:"purch_order"`
	Item         int        `db:"item"`
	PurchDate    *time.Time `db:"purch_date"`
	SupplPlant   *int       `db:"suppl_plant"`
	DestPlant    *int       `db:"dest_plant"`
	MaterialCode *string    `db:"material_code"`
	MaterialDesc *string    `db:"material_description"`
	QtyOrder     *float64   `db:"qty_order"`
	DeliveryDate *time.Time `db:"delivery_date"`
	QtyGI        *float64   `db:"qty_gi"`
	QtyReceipt   *float64   `db:"qty_receipt"`
	IsSalesPO    bool       `db:"is_sales_po"`
	RowHash      string     `db:"row_hash"`
	CreatedAt    time.Time  `db:"created_at"`
}

// FactBilling is one billing line with KG normalization and period tags.
type FactBilling struct {
	ID             int64      `db:"id"`
	BillingDate    *time.Time `db:"billing_date"`
	BillingDoc     string     `db:"billing_document"`
	BillingItem    int        `db:"billing_item"`
	DistChannel    *string    `db:"dist_channel"`
	CustomerName   *string    `db:"customer_name"`
	CustGroup      *string    `db:"cust_group"`
	SalesmanName   *string    `db:"salesman_name"`
	MaterialCode   *string    `db:"material_code"`
	MaterialDesc   *string    `db:"material_description"`
	ProdHierarchy  *string    `db:"prod_hierarchy"`
	BillingQty     *float64   `db:"billing_qty"`
	BillingQtyKG   *float64   `db:"billing_qty_kg"`
	SalesUnit      *string    `db:"sales_unit"`
	NetValue       *float64   `db:"net_value"`
	Total          *float64   `db:"total"`
	NetWeight      *float64   `db:"net_weight"`
	SONumber       *string    `db:"so_number"`
	SODate         *time.Time `db:"so_date"`
	DocReferenceOD *string    `db:"doc_reference_od"`
	Semester       *int       `db:"semester"`
	Year           *int       `db:"year"`
	RowHash        string     `db:"row_hash"`
	CreatedAt      time.Time  `db:"created_at"`
}

// FactDelivery is one outbound delivery line.
type FactDelivery struct {
	ID            int64      `db:"id"`
	ActualGIDate  *time.Time `db:"actual_gi_date"`
	Delivery      string     `db:"delivery"`
	LineItem      int        `db:"line_item"`
	SOReference   *string    `db:"so_reference"`
	DistChannel   *string    `db:"dist_channel"`
	CustGroup     *string    `db:"cust_group"`
	SoldToParty   *string    `db:"sold_to_party"`
	ShipToName    *string    `db:"ship_to_name"`
	SalesmanName  *string    `db:"salesman_name"`
	MaterialCode  *string    `db:"material_code"`
	MaterialDesc  *string    `db:"material_description"`
	DeliveryQty   *float64   `db:"delivery_qty"`
	DeliveryQtyKG *float64   `db:"delivery_qty_kg"`
	NetWeight     *float64   `db:"net_weight"`
	ProdHierarchy *string    `db:"prod_hierarchy"`
	RowHash       string     `db:"row_hash"`
	CreatedAt     time.Time  `db:"created_at"`
}

// FactARAging is one AR aging line within a snapshot.
type FactARAging struct {
	ID               int64      `db:"id"`
	DistChannel      *string    `db:"dist_channel"`
	CustGroup        *string    `db:"cust_group"`
	SalesmanName     *string    `db:"salesman_name"`
	CustomerName     string     `db:"customer_name"`
	Currency         *string    `db:"currency"`
	TotalTarget      *float64   `db:"total_target"`
	TotalRealization *float64   `db:"total_realization"`
	SnapshotDate     time.Time  `db:"snapshot_date"`
	RowHash          string     `db:"row_hash"`
	CreatedAt        time.Time  `db:"created_at"`
}

// FactTarget is one salesman target per semester.
type FactTarget struct {
	ID           int64     `db:"id"`
	SalesmanName string    `db:"salesman_name"`
	Semester     int       `db:"semester"`
	Year         int       `db:"year"`
	Target       *float64  `db:"target"`
	RowHash      string    `db:"row_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// FactLeadTime is one unified lead-time row (MTO, MTS or PURCHASE).
type FactLeadTime struct {
	ID              int64      `db:"id"`
	MaterialCode    *string    `db:"material_code"`
	PlantCode       *int       `db:"plant_code"`
	OrderNumber     *string    `db:"order_number"`
	OrderType       OrderType  `db:"order_type"`
	Batch           *string    `db:"batch"`
	ChannelCode     *string    `db:"channel_code"`
	Vendor          *string    `db:"vendor"`
	StartDate       *time.Time `db:"start_date"`
	EndDate         *time.Time `db:"end_date"`
	LeadTimeDays    int        `db:"lead_time_days"`
	PreparationDays int        `db:"preparation_days"`
	ProductionDays  int        `db:"production_days"`
	TransitDays     int        `db:"transit_days"`
	StorageDays     int        `db:"storage_days"`
	DeliveryDays    int        `db:"delivery_days"`
	CreatedAt       time.Time  `db:"created_at"`
}

// FactPerformance is one production variance row, upserted by
// (process_order_id, batch_id).
type FactPerformance struct {
	ID             int64      `db:"id"`
	ProcessOrderID string     `db:"process_order_id"`
	BatchID        *string    `db:"batch_id"`
	MaterialCode   *string    `db:"material_code"`
	MaterialDesc   *string    `db:"material_description"`
	ParentOrderID  *string    `db:"parent_order_id"`
	MRPController  *string    `db:"mrp_controller"`
	ProductGroup1  *string    `db:"product_group_1"`
	ProductGroup2  *string    `db:"product_group_2"`
	OutputActualKG *float64   `db:"output_actual_kg"`
	InputActualKG  *float64   `db:"input_actual_kg"`
	OrderQty       *float64   `db:"process_order_qty"`
	LossKG         *float64   `db:"loss_kg"`
	LossPct        *float64   `db:"loss_pct"`
	SGTheoretical  *float64   `db:"sg_theoretical"`
	SGActual       *float64   `db:"sg_actual"`
	PostingDate    *time.Time `db:"posting_date"`
	ReferenceDate  time.Time  `db:"reference_date"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at"`
}

// Alert is one operational alert row in fact_alerts.
type Alert struct {
	ID         int64         `db:"id"`
	AlertType  string        `db:"alert_type"`
	Severity   AlertSeverity `db:"severity"`
	Status     AlertStatus   `db:"status"`
	EntityType string        `db:"entity_type"`
	EntityID   string        `db:"entity_id"`
	Batch      *string       `db:"batch"`
	Material   *string       `db:"material"`
	Plant      *int          `db:"plant"`
	StuckHours *float64      `db:"stuck_hours"`
	Threshold  *float64      `db:"threshold"`
	DetectedAt time.Time     `db:"detected_at"`
	ResolvedAt *time.Time    `db:"resolved_at"`
	Message    *string       `db:"message"`
}

// DimPlant is the seeded plant dimension.
type DimPlant struct {
	PlantCode   int     `db:"plant_code"`
	PlantName   *string `db:"plant_name"`
	PlantRole   string  `db:"plant_role"`
	Description *string `db:"description"`
}

// DimMvt is the seeded movement-type dimension.
type DimMvt struct {
	MvtCode     int     `db:"mvt_code"`
	Description *string `db:"description"`
	StockImpact int     `db:"stock_impact"`
	ReversalMvt *int    `db:"reversal_mvt"`
	Category    string  `db:"category"`
}

// DimMaterial is the material master built from movements and the
// channel master.
type DimMaterial struct {
	MaterialCode string    `db:"material_code"`
	MaterialDesc *string   `db:"material_description"`
	DistChannel  *string   `db:"dist_channel"`
	UOM          *string   `db:"uom"`
	CreatedAt    time.Time `db:"created_at"`
}

// DimUOMConversion is the billing-derived kg-per-unit factor per material.
type DimUOMConversion struct {
	MaterialCode string    `db:"material_code"`
	MaterialDesc *string   `db:"material_description"`
	BaseUOM      *string   `db:"base_uom"`
	KGPerUnit    float64   `db:"kg_per_unit"`
	Source       string    `db:"source"`
	SampleCount  int       `db:"sample_count"`
	VariancePct  *float64  `db:"variance_pct"`
	LastUpdated  time.Time `db:"last_updated"`
}

// DimProductHierarchy groups materials by the first three hierarchy
// levels; material codes are stored without leading zeros.
type DimProductHierarchy struct {
	MaterialCode string     `db:"material_code"`
	MaterialDesc *string    `db:"material_description"`
	PHLevel1     *string    `db:"ph_level_1"`
	PHLevel2     *string    `db:"ph_level_2"`
	PHLevel3     *string    `db:"ph_level_3"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}
