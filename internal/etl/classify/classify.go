// warehouse-go/internal/etl/classify/classify.go

// Package classify holds the order classification rules: make-to-order
// detection, production order status, sales purchase orders and the
// semester calendar.
package classify

import (
	"strings"
	"time"

	"github.com/alkana/warehouse-go/internal/domain"
)

// Classifier evaluates classification rules against the injected
// constant set.
type Classifier struct {
	rules domain.Rules
}

func New(rules domain.Rules) *Classifier {
	return &Classifier{rules: rules}
}

// IsMTO reports whether an order is make-to-order. Both conditions must
// hold: a real sales order reference, and the packaged-FG MRP
// controller. Intermediates (P02/P03) can carry a sales order without
// being customer fulfillment, and packaged goods without a sales order
// are made to stock.
func (c *Classifier) IsMTO(salesOrder, mrpController *string) bool {
	if !hasValue(salesOrder) {
		return false
	}
	if mrpController == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*mrpController), c.rules.MTOController)
}

// OrderType labels an order MTO or MTS.
func (c *Classifier) OrderType(salesOrder, mrpController *string) domain.OrderType {
	if c.IsMTO(salesOrder, mrpController) {
		return domain.OrderTypeMTO
	}
	return domain.OrderTypeMTS
}

// OrderStatus derives the production order state from the finish date
// and the delivered quantity.
func (c *Classifier) OrderStatus(finishDate *time.Time, deliveredQty *float64) domain.OrderStatus {
	var delivered float64
	if deliveredQty != nil {
		delivered = *deliveredQty
	}
	hasFinish := finishDate != nil

	switch {
	case hasFinish && delivered == 0:
		return domain.OrderStatusCancelled
	case !hasFinish && delivered == 0:
		return domain.OrderStatusWIP
	case hasFinish && delivered > 0:
		return domain.OrderStatusCompleted
	default:
		return domain.OrderStatusInTransit
	}
}

// IsSalesPO reports whether a purchase order number belongs to customer
// sales. Procurement, internal transfer and subcontracting POs use other
// prefixes.
func (c *Classifier) IsSalesPO(poNumber string) bool {
	return strings.HasPrefix(strings.TrimSpace(poNumber), c.rules.SalesPOPrefix)
}

// Semester maps a date to its half-year: 1 for January-June, 2 for
// July-December.
func Semester(t time.Time) int {
	if t.Month() <= time.June {
		return 1
	}
	return 2
}

// nullSpellings are sales-order values that mean "no sales order"; they
// leak in from spreadsheet exports.
func hasValue(s *string) bool {
	if s == nil {
		return false
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return false
	}
	return true
}
