package sandbox

import (
	"invest-client/src/models"

	"github.com/shopspring/decimal"
)

// DefaultInstruments is the listing served when none is configured.
func DefaultInstruments() []models.MInstrument {
	share := func(uid, figi, ticker, class, name string, lot int64, step string) models.MInstrument {
		return models.MInstrument{
			UID:               uid,
			Figi:              figi,
			Ticker:            ticker,
			ClassCode:         class,
			Kind:              models.KindShare,
			Name:              name,
			Lot:               lot,
			Currency:          models.CurrencyRUB,
			MinPriceIncrement: decimal.RequireFromString(step),
			TradingStatus:     models.StatusNormalTrading,
			APITradeAvailable: true,
			BuyAvailable:      true,
			SellAvailable:     true,
		}
	}

	return []models.MInstrument{
		share("e6123145-9665-43e0-8413-cd61b8aa9b13", "BBG004730N88", "SBER", "TQBR", "Sberbank", 10, "0.01"),
		share("962e2a95-02a9-4171-abd7-aa198dbe643a", "BBG004730RP0", "GAZP", "TQBR", "Gazprom", 10, "0.01"),
		share("02cfdf61-6298-4c0f-a9ca-9cabc82afaf3", "BBG004731032", "LKOH", "TQBR", "Lukoil", 1, "0.5"),
		share("7c0fb1c6-6f23-4fde-b3a9-e3ef1b2a4b2a", "", "SBER", "SPBRU", "Sberbank (SPB)", 1, "0.01"),
		{
			UID:               "a22a1263-8e1b-4546-a1aa-416463f104d3",
			Figi:              "BBG0013HGFT4",
			Ticker:            "USD000UTSTOM",
			ClassCode:         "CETS",
			Kind:              models.KindCurrency,
			Name:              "US Dollar",
			Lot:               1000,
			Currency:          models.CurrencyRUB,
			MinPriceIncrement: decimal.RequireFromString("0.0025"),
			TradingStatus:     models.StatusNormalTrading,
			APITradeAvailable: true,
			BuyAvailable:      true,
			SellAvailable:     true,
		},
	}
}
