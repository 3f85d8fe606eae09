package portfolio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a wire-level mode string ("BUY"/"SELL", any case)
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidOrder, s)
	}
}

// Order is an immutable record of a single BUY/SELL instruction and its
// fill price. Written once to the ledger, never mutated or deleted.
type Order struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"` // instrument identifier
	Qty   int64           `json:"qty"`
	Price decimal.Decimal `json:"price"`
	Mode  Side            `json:"mode"`

	// Set by the processor at append time (Unix milliseconds).
	// Non-decreasing per insertion order, not strictly increasing.
	Timestamp int64 `json:"timestamp"`
}

// Holding is the mutable net aggregate position for one instrument:
// at most one live row per instrument.
//
// Invariants while the row exists: Qty >= 1, Avg > 0. Avg is the
// quantity-weighted mean acquisition price of all BUY fills not yet
// offset by a SELL:
//
//	newAvg = (avg*qty + price*q) / (qty + q)
//
// A partial SELL reduces Qty and leaves Avg unchanged; a SELL that
// drives Qty to zero or below deletes the row.
type Holding struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Qty  int64           `json:"qty"`
	Avg  decimal.Decimal `json:"avg"`
}

// Position is a read-only dataset distinct from holdings (intraday
// product rows). The backend serves it as-is; nothing recomputes it.
type Position struct {
	ID      string          `json:"id"`
	Product string          `json:"product"`
	Name    string          `json:"name"`
	Qty     int64           `json:"qty"`
	Avg     decimal.Decimal `json:"avg"`
	Price   decimal.Decimal `json:"price"`
	Net     string          `json:"net"`
	Day     string          `json:"day"`
	IsLoss  bool            `json:"isLoss"`
}

// Receipt confirms an order was recorded. It deliberately does not echo
// the resulting holding state.
type Receipt struct {
	OrderID   string `json:"orderId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Validate checks the placeOrder preconditions. A violation means no
// side effect may occur on either store.
func (o *Order) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: empty instrument name", ErrInvalidOrder)
	}
	if o.Qty <= 0 {
		return fmt.Errorf("%w: qty must be positive, got %d", ErrInvalidOrder, o.Qty)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidOrder, o.Price)
	}
	if o.Mode != SideBuy && o.Mode != SideSell {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOrder, o.Mode)
	}
	return nil
}
