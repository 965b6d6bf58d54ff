package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used in artifacts and provider queries.
const DateLayout = "2006-01-02"

// PriceBar is one trading day of a ticker's price history.
type PriceBar struct {
	Date   time.Time       `json:"date"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Day returns the bar's calendar date as YYYY-MM-DD.
func (b PriceBar) Day() string {
	return b.Date.Format(DateLayout)
}

// PricePeriods lists the history ranges accepted by the market data provider.
var PricePeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidPricePeriod reports whether period is one of PricePeriods.
func ValidPricePeriod(period string) bool {
	for _, p := range PricePeriods {
		if p == period {
			return true
		}
	}
	return false
}

// TruncateDay returns midnight UTC of t's calendar date as seen in t's own location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
