package domain

// Rules bundles the SAP process constants the warehouse depends on:
// plant roles, movement reversal pairs, per-movement stock impact, and
// the classification literals. Components receive a Rules value at
// construction instead of reaching for package globals.
type Rules struct {
	PlantRoles    map[int]string
	ReversalPairs map[int]int
	StockImpacts  map[int]int

	// MTOController is the MRP controller that marks packaged finished
	// goods; only these orders can be Make-to-Order.
	MTOController string

	// SalesPOPrefix marks purchase orders raised against customer sales;
	// all other PO prefixes are procurement or internal transfers.
	SalesPOPrefix string

	FactoryPlant int
	DCPlant      int
}

const (
	PlantRoleFactory = "FACTORY"
	PlantRoleDC      = "DC"
	PlantRoleOther   = "OTHER"
	PlantRoleUnknown = "UNKNOWN"
)

// SAP movement type codes used across netting and transforms.
const (
	MvtGoodsReceipt        = 101
	MvtGoodsReceiptRev     = 102
	MvtIssueDelivery       = 601
	MvtIssueDeliveryRev    = 602
	MvtIssueProduction     = 261
	MvtIssueProductionRev  = 262
	MvtIssueCostCenter     = 201
	MvtIssueCostCenterRev  = 202
	MvtTransferPlant       = 301
	MvtTransferPlantRev    = 302
	MvtTransferSloc        = 311
	MvtTransferSlocRev     = 312
	MvtTransferCrossPlant  = 351
	MvtTransferCrossPlRev  = 352
)

// DefaultRules returns the production constant set.
func DefaultRules() Rules {
	return Rules{
		PlantRoles: map[int]string{
			1201: PlantRoleFactory,
			1401: PlantRoleDC,
			1203: PlantRoleOther,
		},
		ReversalPairs: map[int]int{
			101: 102, 102: 101,
			201: 202, 202: 201,
			261: 262, 262: 261,
			301: 302, 302: 301,
			311: 312, 312: 311,
			351: 352, 352: 351,
			601: 602, 602: 601,
		},
		StockImpacts: map[int]int{
			101: +1, 102: -1,
			201: -1, 202: +1,
			261: -1, 262: +1,
			301: 0, 302: 0,
			311: 0, 312: 0,
			351: 0, 352: 0,
			601: -1, 602: +1,
		},
		MTOController: "P01",
		SalesPOPrefix: "44",
		FactoryPlant:  1201,
		DCPlant:       1401,
	}
}

// StockImpact returns +1/-1/0 for a movement type, 0 for unknown codes.
func (r Rules) StockImpact(mvtType int) int {
	return r.StockImpacts[mvtType]
}

// ReversalPair returns the reversal movement for a movement type.
func (r Rules) ReversalPair(mvtType int) (int, bool) {
	rev, ok := r.ReversalPairs[mvtType]
	return rev, ok
}

// PlantRole returns FACTORY, DC, OTHER or UNKNOWN for a plant code.
func (r Rules) PlantRole(plantCode int) string {
	if role, ok := r.PlantRoles[plantCode]; ok {
		return role
	}
	return PlantRoleUnknown
}

// MvtCategory groups a movement type for the dim_mvt dimension.
func (r Rules) MvtCategory(mvtType int) string {
	switch mvtType {
	case 101, 102:
		return "GOODS_RECEIPT"
	case 201, 202:
		return "GOODS_ISSUE_COST_CENTER"
	case 261, 262:
		return "GOODS_ISSUE_PRODUCTION"
	case 301, 302, 311, 312, 351, 352:
		return "TRANSFER"
	case 601, 602:
		return "DELIVERY"
	default:
		return "OTHER"
	}
}
