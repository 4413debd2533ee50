package quotes

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalcLineTotals applies the line amount formula:
// gross = quantity × unit_price, discount = gross × pct/100,
// net = gross − discount.
func CalcLineTotals(quantity float64, unitPrice, discountPercent decimal.Decimal) (gross, discount, net decimal.Decimal) {
	gross = decimal.NewFromFloat(quantity).Mul(unitPrice)
	discount = gross.Mul(discountPercent).Div(hundred)
	net = gross.Sub(discount)
	return gross, discount, net
}

// sumItemTotals folds item amounts into quote totals, in item order.
func sumItemTotals(items []QuoteItem) (gross, discount, net decimal.Decimal) {
	for _, item := range items {
		gross = gross.Add(item.GrossTotal)
		discount = discount.Add(item.DiscountTotal)
		net = net.Add(item.NetTotal)
	}
	return gross, discount, net
}
