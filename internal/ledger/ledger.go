package ledger

import (
	"math"
	"strconv"
	"strings"

	"github.com/zappabad/daytrader/internal/market"
)

// ParseQuantity parses a share count typed by the player.
func ParseQuantity(s string) (market.Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, rejectf(CodeInvalidQuantity, "enter a number of shares")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, rejectf(CodeInvalidQuantity, "enter a valid number of shares")
	}
	return market.Quantity(n), nil
}

// Execute validates and applies a trade at the instrument's current price.
// It works on copies: on error the returned values equal the inputs, so a
// rejected trade never leaves state half-applied.
func Execute(p Portfolio, st market.InstrumentState, side Side, qty market.Quantity) (Portfolio, market.InstrumentState, Fill, error) {
	if qty <= 0 {
		return p, st, Fill{}, rejectf(CodeInvalidQuantity, "enter a valid number of shares")
	}
	price := st.CurrentPrice
	if price > 0 && int64(qty) > math.MaxInt64/int64(price) {
		return p, st, Fill{}, rejectf(CodeInvalidQuantity, "quantity %d is too large", qty)
	}
	amount := price * market.Price(qty)

	switch side {
	case SideBuy:
		if amount > p.Cash {
			return p, st, Fill{}, rejectf(CodeInsufficientCash, "insufficient cash: need %d, have %d", amount, p.Cash)
		}
		p.Cash -= amount
		st.SharesHeld += qty

	case SideSell:
		if qty > st.SharesHeld {
			return p, st, Fill{}, rejectf(CodeInsufficientShares, "insufficient shares: selling %d, holding %d", qty, st.SharesHeld)
		}
		p.Cash += amount
		st.SharesHeld -= qty

	default:
		return p, st, Fill{}, ErrInvalidSide
	}

	return p, st, Fill{
		Instrument:  st.Instrument,
		Side:        side,
		Quantity:    qty,
		Price:       price,
		Amount:      amount,
		CashAfter:   p.Cash,
		SharesAfter: st.SharesHeld,
	}, nil
}

// MaxBuyable is the largest quantity the cash balance can pay for.
func MaxBuyable(p Portfolio, st market.InstrumentState) market.Quantity {
	if st.CurrentPrice <= 0 || p.Cash <= 0 {
		return 0
	}
	return market.Quantity(p.Cash / st.CurrentPrice)
}

// MaxSellable is the number of shares held.
func MaxSellable(st market.InstrumentState) market.Quantity {
	return st.SharesHeld
}

// Estimate returns the value of a trade of qty shares at the current price.
func Estimate(st market.InstrumentState, qty market.Quantity) market.Price {
	if qty <= 0 {
		return 0
	}
	return st.CurrentPrice * market.Price(qty)
}
