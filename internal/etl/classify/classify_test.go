package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alkana/warehouse-go/internal/domain"
)

func str(s string) *string      { return &s }
func f64(v float64) *float64    { return &v }
func date(m, d int) *time.Time {
	t := time.Date(2025, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestIsMTODualRule(t *testing.T) {
	c := New(domain.DefaultRules())

	cases := []struct {
		name       string
		salesOrder *string
		mrp        *string
		want       bool
	}{
		{"sales order and P01", str("SO-1001"), str("P01"), true},
		{"lowercase controller", str("SO-1001"), str("p01"), true},
		{"P01 without sales order", nil, str("P01"), false},
		{"empty sales order", str("  "), str("P01"), false},
		{"nan sales order", str("nan"), str("P01"), false},
		{"none sales order", str("None"), str("P01"), false},
		{"null sales order", str("NULL"), str("P01"), false},
		{"sales order on intermediate", str("SO-1001"), str("P02"), false},
		{"sales order no controller", str("SO-1001"), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.IsMTO(tc.salesOrder, tc.mrp))
		})
	}
}

func TestOrderType(t *testing.T) {
	c := New(domain.DefaultRules())
	assert.Equal(t, domain.OrderTypeMTO, c.OrderType(str("SO-1"), str("P01")))
	assert.Equal(t, domain.OrderTypeMTS, c.OrderType(nil, str("P01")))
	assert.Equal(t, domain.OrderTypeMTS, c.OrderType(str("SO-1"), str("P03")))
}

func TestOrderStatusMatrix(t *testing.T) {
	c := New(domain.DefaultRules())

	// finished but nothing delivered means the order was cancelled
	assert.Equal(t, domain.OrderStatusCancelled, c.OrderStatus(date(3, 1), f64(0)))
	assert.Equal(t, domain.OrderStatusCancelled, c.OrderStatus(date(3, 1), nil))
	assert.Equal(t, domain.OrderStatusWIP, c.OrderStatus(nil, f64(0)))
	assert.Equal(t, domain.OrderStatusWIP, c.OrderStatus(nil, nil))
	assert.Equal(t, domain.OrderStatusCompleted, c.OrderStatus(date(3, 1), f64(120)))
	assert.Equal(t, domain.OrderStatusInTransit, c.OrderStatus(nil, f64(120)))
}

func TestIsSalesPO(t *testing.T) {
	c := New(domain.DefaultRules())
	assert.True(t, c.IsSalesPO("4400012345"))
	assert.True(t, c.IsSalesPO(" 4400012345 "))
	assert.False(t, c.IsSalesPO("4500012345"))
	assert.False(t, c.IsSalesPO(""))
	assert.False(t, c.IsSalesPO("X4400012345"))
}

func TestSemesterBoundaries(t *testing.T) {
	assert.Equal(t, 1, Semester(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, Semester(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, Semester(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, Semester(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}
