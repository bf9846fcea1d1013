package models

import "github.com/shopspring/decimal"

type Pricing struct {
	TaxRate          decimal.Decimal
	FreeShippingOver decimal.Decimal
	FlatShipping     decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:          decimal.RequireFromString("0.10"),
		FreeShippingOver: decimal.NewFromInt(100),
		FlatShipping:     decimal.NewFromInt(15),
	}
}

type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeSummary prices a cart. Shipping is free only when the subtotal is
// strictly above the threshold.
func ComputeSummary(cart Cart, p Pricing) Summary {
	subtotal := decimal.Zero
	for _, item := range cart {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(p.TaxRate)

	shipping := p.FlatShipping
	if subtotal.GreaterThan(p.FreeShippingOver) {
		shipping = decimal.Zero
	}

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		TaxRate:  p.TaxRate,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
