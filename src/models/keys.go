package models

// -----------------------------------------------------------------------------
// Lookup keys
//
// Anything that can name an instrument implements one or more of these.
// MInstrument implements all of them.
// -----------------------------------------------------------------------------

type IUIDKey interface {
	KeyUID() string
}

type ITickerKey interface {
	KeyTicker() string
}

type IClassCodeTickerKey interface {
	ITickerKey
	KeyClassCode() string
}

// -----------------------------------------------------------------------------

// MInstrumentUID is a bare instrument uid usable wherever an IUIDKey is expected.
type MInstrumentUID string

func (u MInstrumentUID) KeyUID() string { return string(u) }

// UIDs wraps plain uid strings.
func UIDs(uids ...string) []IUIDKey {
	keys := make([]IUIDKey, 0, len(uids))
	for _, uid := range uids {
		keys = append(keys, MInstrumentUID(uid))
	}
	return keys
}

// -----------------------------------------------------------------------------

// MClassCodeTicker pairs a venue class code with a ticker.
type MClassCodeTicker struct {
	ClassCode string `json:"class_code"`
	Ticker    string `json:"ticker"`
}

func (k MClassCodeTicker) KeyTicker() string    { return k.Ticker }
func (k MClassCodeTicker) KeyClassCode() string { return k.ClassCode }

// ClassCodeTickerOf extracts the composite key from any implementation.
func ClassCodeTickerOf(k IClassCodeTickerKey) MClassCodeTicker {
	return MClassCodeTicker{ClassCode: k.KeyClassCode(), Ticker: k.KeyTicker()}
}
