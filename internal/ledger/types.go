package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zappabad/daytrader/internal/market"
)

var (
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidSide        = errors.New("invalid side")
)

// Side is the trade direction: buy or sell.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Code classifies a rejected trade.
type Code uint8

const (
	CodeInvalidQuantity Code = iota + 1
	CodeInsufficientCash
	CodeInsufficientShares
)

func (c Code) String() string {
	switch c {
	case CodeInvalidQuantity:
		return "INVALID_QUANTITY"
	case CodeInsufficientCash:
		return "INSUFFICIENT_CASH"
	case CodeInsufficientShares:
		return "INSUFFICIENT_SHARES"
	default:
		return "UNKNOWN"
	}
}

func (c Code) sentinel() error {
	switch c {
	case CodeInvalidQuantity:
		return ErrInvalidQuantity
	case CodeInsufficientCash:
		return ErrInsufficientCash
	case CodeInsufficientShares:
		return ErrInsufficientShares
	default:
		return nil
	}
}

// TradeError is a rejected trade with a reason fit for display.
// errors.Is matches it against the sentinel for its code.
type TradeError struct {
	Code   Code
	Reason string
}

func (e *TradeError) Error() string {
	return e.Reason
}

func (e *TradeError) Unwrap() error {
	return e.Code.sentinel()
}

func rejectf(code Code, format string, args ...any) *TradeError {
	return &TradeError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Portfolio is the player's cash balance. Share counts live on each
// market.InstrumentState.
type Portfolio struct {
	Cash market.Price
}

// Fill describes an executed trade.
type Fill struct {
	Instrument  market.Instrument
	Side        Side
	Quantity    market.Quantity
	Price       market.Price
	Amount      market.Price
	CashAfter   market.Price
	SharesAfter market.Quantity
}
