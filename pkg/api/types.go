package api

import (
	"github.com/shopspring/decimal"

	"github.com/stockfolio/stockfolio/pkg/portfolio"
)

// Wire types for the REST surface and WebSocket messages. Field names
// match what the dashboard frontend sends and expects.

// ==============================
// REST Request Types
// ==============================

// NewOrderRequest is the payload for POST /newOrder.
type NewOrderRequest struct {
	Name  string          `json:"name"`
	Qty   int64           `json:"qty"`
	Price decimal.Decimal `json:"price"`
	Mode  string          `json:"mode"` // "BUY" or "SELL"
}

// SignupRequest is the payload for POST /signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ==============================
// REST Response Types
// ==============================

// UserInfo is the public view of a user (never includes the hash).
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned from signup and login.
type AuthResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// CurrentUserResponse is returned from GET /currentUser.
type CurrentUserResponse struct {
	User UserInfo `json:"user"`
}

// MessageResponse is a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// OrderReceipt is returned from POST /newOrder.
type OrderReceipt struct {
	Message   string `json:"message"`
	OrderID   string `json:"orderId"`
	Timestamp int64  `json:"timestamp"`
}

// SummaryResponse is the demo portfolio summary served by
// GET /api/summary. The numbers are placeholders, not an aggregation
// over real holdings.
type SummaryResponse struct {
	Username         string  `json:"username"`
	MarginAvailable  float64 `json:"marginAvailable"`
	MarginsUsed      float64 `json:"marginsUsed"`
	OpeningBalance   float64 `json:"openingBalance"`
	HoldingsCount    int     `json:"holdingsCount"`
	ProfitLoss       float64 `json:"profitLoss"`
	ProfitPercentage float64 `json:"profitPercentage"`
	CurrentValue     float64 `json:"currentValue"`
	Investment       float64 `json:"investment"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// HoldingsUpdate is broadcast to connected clients after every
// accepted order, so the dashboard can refresh without polling.
type HoldingsUpdate struct {
	Type      string               `json:"type"` // "holdings"
	Order     *portfolio.Order     `json:"order"`
	Holdings  []*portfolio.Holding `json:"holdings"`
	Timestamp int64                `json:"timestamp"`
}
