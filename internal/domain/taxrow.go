package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax event types. Every trade maps to exactly one of these based on the
// seller-side indicator.
const (
	EventBuy  = "BUY"
	EventSell = "SELL"
)

// TaxRow is one line of the final tax report, derived deterministically from a
// TradeRecord plus an optional daily reference price. Amount and Value are
// absent (Valid == false) when no well-formed source field could produce them;
// they are never rendered as a non-numeric placeholder.
type TaxRow struct {
	Date          time.Time
	Event         string
	Asset         string
	Amount        decimal.NullDecimal
	Value         decimal.NullDecimal
	TransactionID string
	Link          string
}
