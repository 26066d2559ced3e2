package contract

import (
	"strings"

	"invest-client/src/models"
)

const (
	InstrumentsServiceName = "tinkoff.public.invest.api.contract.v1.InstrumentsService"
	SharesMethod           = "/" + InstrumentsServiceName + "/Shares"
	CurrenciesMethod       = "/" + InstrumentsServiceName + "/Currencies"
)

type InstrumentsRequest struct {
	InstrumentStatus InstrumentStatus `json:"instrumentStatus"`
}

// Instrument holds the listing fields shared by shares and currencies.
type Instrument struct {
	UID                   string                `json:"uid"`
	Figi                  string                `json:"figi"`
	Ticker                string                `json:"ticker"`
	ClassCode             string                `json:"classCode"`
	Isin                  string                `json:"isin,omitempty"`
	Lot                   int32                 `json:"lot"`
	Currency              string                `json:"currency"`
	Name                  string                `json:"name"`
	MinPriceIncrement     Quotation             `json:"minPriceIncrement"`
	TradingStatus         SecurityTradingStatus `json:"tradingStatus"`
	APITradeAvailableFlag bool                  `json:"apiTradeAvailableFlag"`
	BuyAvailableFlag      bool                  `json:"buyAvailableFlag"`
	SellAvailableFlag     bool                  `json:"sellAvailableFlag"`
}

func (i *Instrument) toModel(kind models.InstrumentKind) models.MInstrument {
	return models.MInstrument{
		UID:               i.UID,
		Figi:              i.Figi,
		Isin:              i.Isin,
		Ticker:            i.Ticker,
		ClassCode:         i.ClassCode,
		Kind:              kind,
		Name:              i.Name,
		Lot:               int64(i.Lot),
		Currency:          models.Currency(strings.ToLower(i.Currency)),
		MinPriceIncrement: i.MinPriceIncrement.ToDecimal(),
		TradingStatus:     i.TradingStatus.ToModel(),
		APITradeAvailable: i.APITradeAvailableFlag,
		BuyAvailable:      i.BuyAvailableFlag,
		SellAvailable:     i.SellAvailableFlag,
	}
}

// InstrumentFromModel is the inverse of the listing conversion.
func InstrumentFromModel(m models.MInstrument) Instrument {
	return Instrument{
		UID:                   m.UID,
		Figi:                  m.Figi,
		Ticker:                m.Ticker,
		ClassCode:             m.ClassCode,
		Isin:                  m.Isin,
		Lot:                   int32(m.Lot),
		Currency:              string(m.Currency),
		Name:                  m.Name,
		MinPriceIncrement:     QuotationFromDecimal(m.MinPriceIncrement),
		TradingStatus:         SecurityTradingStatusFromModel(m.TradingStatus),
		APITradeAvailableFlag: m.APITradeAvailable,
		BuyAvailableFlag:      m.BuyAvailable,
		SellAvailableFlag:     m.SellAvailable,
	}
}

// -----------------------------------------------------------------------------

type Share struct {
	Instrument
	Sector      string `json:"sector,omitempty"`
	IssueSize   int64  `json:"issueSize,string,omitempty"`
	CountryCode string `json:"countryOfRisk,omitempty"`
}

type SharesResponse struct {
	Instruments []Share `json:"instruments"`
}

func (r *SharesResponse) ToModel() []models.MInstrument {
	out := make([]models.MInstrument, len(r.Instruments))
	for i := range r.Instruments {
		out[i] = r.Instruments[i].toModel(models.KindShare)
	}
	return out
}

// -----------------------------------------------------------------------------

type CurrencyInstrument struct {
	Instrument
	IsoCurrencyName string     `json:"isoCurrencyName"`
	Nominal         MoneyValue `json:"nominal"`
}

type CurrenciesResponse struct {
	Instruments []CurrencyInstrument `json:"instruments"`
}

func (r *CurrenciesResponse) ToModel() []models.MInstrument {
	out := make([]models.MInstrument, len(r.Instruments))
	for i := range r.Instruments {
		out[i] = r.Instruments[i].toModel(models.KindCurrency)
	}
	return out
}
