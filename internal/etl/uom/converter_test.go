package uom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestBuildFromBillingAggregates(t *testing.T) {
	c := NewConverter()
	factors := c.BuildFromBilling([]BillingSample{
		{Material: "100200", MaterialDesc: "Paint 5kg", BillingQty: 10, NetWeight: 50},
		{Material: "100200", MaterialDesc: "Paint 5kg", BillingQty: 30, NetWeight: 150},
		{Material: "100300", MaterialDesc: "Thinner 1kg", BillingQty: 8, NetWeight: 8},
		{Material: "100400", BillingQty: 0, NetWeight: 99}, // zero qty excluded
	}, nil)

	require.Len(t, factors, 2)

	got, ok := c.KGPerUnit("100200")
	require.True(t, ok)
	assert.InDelta(t, 5.0, got, 1e-9) // (50+150)/(10+30)

	got, ok = c.KGPerUnit("100300")
	require.True(t, ok)
	assert.InDelta(t, 1.0, got, 1e-9)

	_, ok = c.KGPerUnit("100400")
	assert.False(t, ok)

	byMat := map[string]Factor{}
	for _, f := range factors {
		byMat[f.MaterialCode] = f
	}
	assert.Equal(t, 2, byMat["100200"].SampleCount)
	assert.Equal(t, "billing", byMat["100200"].Source)
	assert.Equal(t, "Paint 5kg", byMat["100200"].MaterialDesc)
	assert.Nil(t, byMat["100200"].VariancePct) // no delivery data given
}

func TestBuildFromBillingDeliveryVariance(t *testing.T) {
	c := NewConverter()
	factors := c.BuildFromBilling(
		[]BillingSample{{Material: "100200", BillingQty: 10, NetWeight: 50}},
		[]DeliverySample{{Material: "100200", DeliveryQty: 10, NetWeight: 45}},
	)

	require.Len(t, factors, 1)
	require.NotNil(t, factors[0].VariancePct)
	// billing 5.0 kg/pc vs delivery 4.5 kg/pc -> 10%
	assert.InDelta(t, 10.0, *factors[0].VariancePct, 1e-9)
}

func TestBuildFromBillingDeliveryMissingMaterial(t *testing.T) {
	c := NewConverter()
	factors := c.BuildFromBilling(
		[]BillingSample{{Material: "100200", BillingQty: 10, NetWeight: 50}},
		[]DeliverySample{{Material: "999999", DeliveryQty: 5, NetWeight: 5}},
	)

	require.Len(t, factors, 1)
	require.NotNil(t, factors[0].VariancePct)
	// no delivery ratio for this material counts as zero -> 100% variance
	assert.InDelta(t, 100.0, *factors[0].VariancePct, 1e-9)
}

func TestNormalizeToKG(t *testing.T) {
	c := NewConverter()
	c.BuildFromBilling([]BillingSample{
		{Material: "100200", BillingQty: 10, NetWeight: 50},
	}, nil)

	kg, reason := c.NormalizeToKG(f64(4), "PC", "100200")
	require.NotNil(t, kg)
	assert.InDelta(t, 20.0, *kg, 1e-9)
	assert.Equal(t, ReasonConverted, reason)

	kg, reason = c.NormalizeToKG(f64(7.5), "kg", "100200")
	require.NotNil(t, kg)
	assert.InDelta(t, 7.5, *kg, 1e-9)
	assert.Equal(t, ReasonAlreadyKG, reason)

	kg, reason = c.NormalizeToKG(nil, "PC", "100200")
	assert.Nil(t, kg)
	assert.Equal(t, ReasonNullQty, reason)

	kg, reason = c.NormalizeToKG(f64(4), "SET", "999999")
	assert.Nil(t, kg)
	assert.Equal(t, ReasonNoConversionFactor, reason)

	kg, reason = c.NormalizeToKG(f64(4), "L", "100200")
	assert.Nil(t, kg)
	assert.Equal(t, "unknown_uom:L", reason)
}

func TestNormalizeToKGPieceUnits(t *testing.T) {
	c := NewConverter()
	c.BuildFromBilling([]BillingSample{
		{Material: "100200", BillingQty: 2, NetWeight: 4},
	}, nil)

	for _, u := range []string{"PC", "SET", "EA", " pc "} {
		kg, reason := c.NormalizeToKG(f64(3), u, "100200")
		require.NotNil(t, kg, "uom %q", u)
		assert.InDelta(t, 6.0, *kg, 1e-9, "uom %q", u)
		assert.Equal(t, ReasonConverted, reason, "uom %q", u)
	}
}
