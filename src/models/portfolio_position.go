package models

import "github.com/shopspring/decimal"

// MPortfolioPosition is the current holding of one instrument in an account.
type MPortfolioPosition struct {
	InstrumentUID        string          `json:"instrument_uid"`
	Figi                 string          `json:"figi,omitempty"`
	Kind                 InstrumentKind  `json:"kind"`
	Quantity             decimal.Decimal `json:"quantity"`
	QuantityLots         decimal.Decimal `json:"quantity_lots"`
	AveragePositionPrice decimal.Decimal `json:"average_position_price"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	ExpectedYield        decimal.Decimal `json:"expected_yield"`
	Blocked              bool            `json:"blocked"`
}

func (p MPortfolioPosition) KeyUID() string { return p.InstrumentUID }

// Value is quantity times current price.
func (p MPortfolioPosition) Value() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}
