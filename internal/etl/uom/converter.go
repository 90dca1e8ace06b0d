// warehouse-go/internal/etl/uom/converter.go

// Package uom normalizes piece-counted quantities to kilograms. Packaged
// finished goods are tracked in PC while liquids are tracked in KG, so
// cross-stage comparisons need a kg-per-unit factor per material. Billing
// is the source of truth for that factor (the final invoice carries both
// the quantity and the net weight); delivery data only validates it.
package uom

import (
	"fmt"
	"strings"
)

// BillingSample is one billing line used to derive a conversion factor.
type BillingSample struct {
	Material     string
	MaterialDesc string
	BillingQty   float64
	NetWeight    float64
}

// DeliverySample is one delivery line used to cross-check the factor.
type DeliverySample struct {
	Material    string
	DeliveryQty float64
	NetWeight   float64
}

// Factor is the derived kg-per-unit conversion for one material.
type Factor struct {
	MaterialCode string
	MaterialDesc string
	KGPerUnit    float64
	SampleCount  int
	Source       string
	VariancePct  *float64
	IsValid      bool
}

// Reasons returned by NormalizeToKG alongside the converted value.
const (
	ReasonNullQty            = "null_qty"
	ReasonAlreadyKG          = "already_kg"
	ReasonConverted          = "converted"
	ReasonNoConversionFactor = "no_conversion_factor"
)

// Converter holds the conversion table keyed by material code.
type Converter struct {
	factors map[string]Factor
}

func NewConverter() *Converter {
	return &Converter{factors: make(map[string]Factor)}
}

// BuildFromBilling derives kg_per_unit = sum(net_weight)/sum(billing_qty)
// per material over lines with positive quantity. When delivery samples
// are given, the same ratio from deliveries yields a variance percentage
// against the billing factor. Returns the factors in no particular order.
func (c *Converter) BuildFromBilling(billing []BillingSample, delivery []DeliverySample) []Factor {
	type agg struct {
		weight float64
		qty    float64
		desc   string
		count  int
	}
	byMaterial := make(map[string]*agg)
	var order []string
	for _, s := range billing {
		if s.BillingQty <= 0 || s.Material == "" {
			continue
		}
		a, ok := byMaterial[s.Material]
		if !ok {
			a = &agg{desc: s.MaterialDesc}
			byMaterial[s.Material] = a
			order = append(order, s.Material)
		}
		a.weight += s.NetWeight
		a.qty += s.BillingQty
		a.count++
	}

	deliveryRatio := make(map[string]float64)
	if delivery != nil {
		type dagg struct{ weight, qty float64 }
		byDel := make(map[string]*dagg)
		for _, s := range delivery {
			if s.DeliveryQty <= 0 || s.Material == "" {
				continue
			}
			d, ok := byDel[s.Material]
			if !ok {
				d = &dagg{}
				byDel[s.Material] = d
			}
			d.weight += s.NetWeight
			d.qty += s.DeliveryQty
		}
		for mat, d := range byDel {
			deliveryRatio[mat] = d.weight / d.qty
		}
	}

	out := make([]Factor, 0, len(order))
	for _, mat := range order {
		a := byMaterial[mat]
		f := Factor{
			MaterialCode: mat,
			MaterialDesc: a.desc,
			KGPerUnit:    a.weight / a.qty,
			SampleCount:  a.count,
			Source:       "billing",
		}
		f.IsValid = f.KGPerUnit > 0
		if delivery != nil {
			dr := deliveryRatio[mat] // zero when the material never shipped
			var variance float64
			if f.KGPerUnit > 0 {
				variance = (f.KGPerUnit - dr) / f.KGPerUnit * 100
				if variance < 0 {
					variance = -variance
				}
			}
			f.VariancePct = &variance
		}
		c.factors[mat] = f
		out = append(out, f)
	}
	return out
}

// KGPerUnit returns the factor for a material, ok=false when unknown or
// invalid.
func (c *Converter) KGPerUnit(material string) (float64, bool) {
	f, ok := c.factors[material]
	if !ok || !f.IsValid {
		return 0, false
	}
	return f.KGPerUnit, true
}

// Factors returns the full conversion table for persistence.
func (c *Converter) Factors() []Factor {
	out := make([]Factor, 0, len(c.factors))
	for _, f := range c.factors {
		out = append(out, f)
	}
	return out
}

// NormalizeToKG converts a quantity to kilograms. KG passes through;
// piece units (PC, SET, EA) multiply by the material's factor. The
// second return names the outcome: already_kg, converted,
// no_conversion_factor, null_qty, or unknown_uom:<uom>.
func (c *Converter) NormalizeToKG(qty *float64, uomCode, material string) (*float64, string) {
	if qty == nil {
		return nil, ReasonNullQty
	}
	u := strings.ToUpper(strings.TrimSpace(uomCode))
	if u == "KG" {
		v := *qty
		return &v, ReasonAlreadyKG
	}
	switch u {
	case "PC", "SET", "EA":
		factor, ok := c.KGPerUnit(material)
		if !ok {
			return nil, ReasonNoConversionFactor
		}
		v := *qty * factor
		return &v, ReasonConverted
	}
	return nil, fmt.Sprintf("unknown_uom:%s", u)
}
