package ledger

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/daytrader/internal/market"
)

func position(price market.Price, shares market.Quantity) market.InstrumentState {
	st := market.NewInstrumentState(market.Instrument{ID: 2, Name: "B", DataSourceIndex: 1}, price)
	st.SharesHeld = shares
	return st
}

func TestBuyThenInsufficientCash(t *testing.T) {
	p := Portfolio{Cash: 100000}
	st := position(1500, 0)

	p, st, fill, err := Execute(p, st, SideBuy, 10)
	require.NoError(t, err)
	assert.Equal(t, market.Price(85000), p.Cash)
	assert.Equal(t, market.Quantity(10), st.SharesHeld)
	assert.Equal(t, market.Price(15000), fill.Amount)
	assert.Equal(t, market.Price(85000), fill.CashAfter)
	assert.Equal(t, market.Quantity(10), fill.SharesAfter)

	p2, st2, _, err := Execute(p, st, SideBuy, 60)
	var tradeErr *TradeError
	require.True(t, errors.As(err, &tradeErr))
	assert.Equal(t, CodeInsufficientCash, tradeErr.Code)
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.Equal(t, p, p2)
	assert.Equal(t, st, st2)
}

func TestSell(t *testing.T) {
	p, st, fill, err := Execute(Portfolio{Cash: 0}, position(2000, 5), SideSell, 5)
	require.NoError(t, err)
	assert.Equal(t, market.Price(10000), p.Cash)
	assert.Equal(t, market.Quantity(0), st.SharesHeld)
	assert.Equal(t, SideSell, fill.Side)

	_, st2, _, err := Execute(p, st, SideSell, 1)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	assert.Equal(t, st, st2)
}

func TestInvalidQuantityCheckedFirst(t *testing.T) {
	// Zero quantity is reported as invalid even though cash is also empty.
	_, _, _, err := Execute(Portfolio{}, position(1000, 0), SideBuy, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, _, err = Execute(Portfolio{}, position(1000, 0), SideSell, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, _, err = Execute(Portfolio{Cash: math.MaxInt64}, position(1000, 0), SideBuy, math.MaxInt64/2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestInvalidSide(t *testing.T) {
	_, _, _, err := Execute(Portfolio{Cash: 10}, position(1, 0), Side(9), 1)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, market.Quantity(12), q)

	for _, in := range []string{"", "0", "-1", "1.5", "12abc", "abc"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidQuantity, in)
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("buy")
	require.NoError(t, err)
	assert.Equal(t, SideBuy, s)

	s, err = ParseSide("SELL")
	require.NoError(t, err)
	assert.Equal(t, SideSell, s)

	_, err = ParseSide("short")
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestValueConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := Portfolio{Cash: 100000}
	st := position(1234, 0)

	for i := 0; i < 2000; i++ {
		before := p.Cash + st.HoldingValue()
		side := SideBuy
		if rng.Intn(2) == 1 {
			side = SideSell
		}
		qty := market.Quantity(rng.Intn(40) - 5)

		np, nst, _, err := Execute(p, st, side, qty)
		if err != nil {
			assert.Equal(t, p, np)
			assert.Equal(t, st, nst)
			continue
		}
		p, st = np, nst

		assert.Equal(t, before, p.Cash+st.HoldingValue())
		assert.GreaterOrEqual(t, p.Cash, market.Price(0))
		assert.GreaterOrEqual(t, st.SharesHeld, market.Quantity(0))
	}
}

func TestTradeHelpers(t *testing.T) {
	st := position(1500, 7)
	assert.Equal(t, market.Quantity(66), MaxBuyable(Portfolio{Cash: 100000}, st))
	assert.Equal(t, market.Quantity(0), MaxBuyable(Portfolio{Cash: 0}, st))
	assert.Equal(t, market.Quantity(7), MaxSellable(st))
	assert.Equal(t, market.Price(4500), Estimate(st, 3))
	assert.Equal(t, market.Price(0), Estimate(st, -3))
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "INSUFFICIENT_CASH", CodeInsufficientCash.String())
	assert.Equal(t, "BUY", SideBuy.String())
	err := &TradeError{Code: CodeInvalidQuantity, Reason: "bad"}
	assert.Equal(t, "bad", err.Error())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
