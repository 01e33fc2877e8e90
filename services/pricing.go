package services

import "math"

// PricingConfig is the slice of store settings the calculator needs.
type PricingConfig struct {
	TaxRate           float64
	ServiceChargeRate float64
	TaxIncluded       bool
}

// Totals is the derived money block shared by carts and orders.
type Totals struct {
	Subtotal      float64
	TaxAmount     float64
	ServiceCharge float64
	GrandTotal    float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotal prices one line: unit price already includes option deltas.
func LineTotal(unitPrice float64, quantity int) float64 {
	return round2(unitPrice * float64(quantity))
}

// CalculateTotals derives totals from line totals and the store pricing
// settings. Service charge is a percentage of the subtotal; tax applies
// to subtotal plus service charge. With TaxIncluded the tax is already
// embedded in the displayed prices, so the grand total does not grow.
func CalculateTotals(lineTotals []float64, cfg PricingConfig) Totals {
	var subtotal float64
	for _, lt := range lineTotals {
		subtotal += lt
	}
	subtotal = round2(subtotal)

	service := round2(subtotal * cfg.ServiceChargeRate)
	taxable := subtotal + service

	var tax, grand float64
	if cfg.TaxIncluded {
		grand = taxable
		if cfg.TaxRate > 0 {
			tax = round2(taxable - taxable/(1+cfg.TaxRate))
		}
	} else {
		tax = round2(taxable * cfg.TaxRate)
		grand = round2(taxable + tax)
	}

	return Totals{
		Subtotal:      subtotal,
		TaxAmount:     tax,
		ServiceCharge: service,
		GrandTotal:    grand,
	}
}
