package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the number of decimal places bar prices are rounded to.
const PriceDecimals = 2

type Bar struct {
	Index  int             `json:"index"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// NewBar builds a bar with prices rounded half-up to PriceDecimals.
func NewBar(index int, date time.Time, open, high, low, close, volume decimal.Decimal) Bar {
	return Bar{
		Index:  index,
		Date:   date,
		Open:   open.Round(PriceDecimals),
		High:   high.Round(PriceDecimals),
		Low:    low.Round(PriceDecimals),
		Close:  close.Round(PriceDecimals),
		Volume: volume,
	}
}

// Field selects one OHLCV component of a bar.
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
)

func (b Bar) Get(f Field) decimal.Decimal {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldVolume:
		return b.Volume
	default:
		return b.Close
	}
}
