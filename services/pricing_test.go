package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tableshare/tableshare/services"
)

func TestCalculateTotalsTaxIncluded(t *testing.T) {
	// Two items summing to 10,000 with embedded 10% tax: the grand total
	// must not grow beyond the displayed prices.
	totals := services.CalculateTotals([]float64{5000, 5000}, services.PricingConfig{
		TaxRate:           0.10,
		ServiceChargeRate: 0,
		TaxIncluded:       true,
	})

	assert.Equal(t, 10000.0, totals.Subtotal)
	assert.Equal(t, 10000.0, totals.GrandTotal)
	assert.InDelta(t, 909.09, totals.TaxAmount, 0.01)
	assert.Equal(t, 0.0, totals.ServiceCharge)
}

func TestCalculateTotalsTaxExcluded(t *testing.T) {
	totals := services.CalculateTotals([]float64{5000, 5000}, services.PricingConfig{
		TaxRate:           0.10,
		ServiceChargeRate: 0,
		TaxIncluded:       false,
	})

	assert.Equal(t, 10000.0, totals.Subtotal)
	assert.Equal(t, 1000.0, totals.TaxAmount)
	assert.Equal(t, 11000.0, totals.GrandTotal)
}

func TestCalculateTotalsServiceCharge(t *testing.T) {
	totals := services.CalculateTotals([]float64{10000}, services.PricingConfig{
		TaxRate:           0.10,
		ServiceChargeRate: 0.05,
		TaxIncluded:       false,
	})

	assert.Equal(t, 10000.0, totals.Subtotal)
	assert.Equal(t, 500.0, totals.ServiceCharge)
	// Tax applies to subtotal + service charge.
	assert.Equal(t, 1050.0, totals.TaxAmount)
	assert.Equal(t, 11550.0, totals.GrandTotal)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	totals := services.CalculateTotals(nil, services.PricingConfig{
		TaxRate:     0.10,
		TaxIncluded: false,
	})

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.Equal(t, 0.0, totals.GrandTotal)
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 11000.0, services.LineTotal(5500, 2))
	assert.Equal(t, 5000.0, services.LineTotal(5000, 1))
}
