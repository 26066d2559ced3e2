package contract

import (
	"github.com/shopspring/decimal"
)

const nanoExp = -9

// Quotation is a fixed point number split into whole units and billionths.
type Quotation struct {
	Units int64 `json:"units,string"`
	Nano  int32 `json:"nano"`
}

func (q Quotation) ToDecimal() decimal.Decimal {
	return decimal.New(q.Units, 0).Add(decimal.New(int64(q.Nano), nanoExp))
}

// QuotationFromDecimal truncates d below one nano.
func QuotationFromDecimal(d decimal.Decimal) Quotation {
	units := d.Truncate(0)
	nano := d.Sub(units).Shift(-nanoExp).Truncate(0)
	return Quotation{Units: units.IntPart(), Nano: int32(nano.IntPart())}
}

// MoneyValue is a Quotation in a currency.
type MoneyValue struct {
	Currency string `json:"currency"`
	Units    int64  `json:"units,string"`
	Nano     int32  `json:"nano"`
}

func (m MoneyValue) ToDecimal() decimal.Decimal {
	return Quotation{Units: m.Units, Nano: m.Nano}.ToDecimal()
}
