package market

import "strconv"

// InstrumentID uniquely identifies an instrument.
type InstrumentID int64

// Price is an amount of money in whole currency units.
type Price int64

func (p Price) String() string { return strconv.FormatInt(int64(p), 10) }

// MinPrice is the floor applied to every synthesized price.
const MinPrice Price = 1

// Instrument represents a tradeable instrument.
// DataSourceIndex selects the historical series that drives its price.
type Instrument struct {
	ID              InstrumentID
	Name            string
	DataSourceIndex int
}

// Direction is the movement between two consecutive prices.
type Direction int8

const (
	DirectionFlat Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "UP"
	case DirectionDown:
		return "DOWN"
	default:
		return "FLAT"
	}
}

// DirectionOf compares a previous and a current price.
func DirectionOf(previous, current Price) Direction {
	switch {
	case current > previous:
		return DirectionUp
	case current < previous:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Quantity is a number of shares.
type Quantity int64

func (q Quantity) String() string { return strconv.FormatInt(int64(q), 10) }

// InstrumentState is the mutable per-instrument game state.
// DayStartPrice anchors intraday interpolation and changes only at day rollover.
type InstrumentState struct {
	Instrument    Instrument
	CurrentPrice  Price
	PreviousPrice Price
	DayStartPrice Price
	SharesHeld    Quantity
}

// NewInstrumentState returns a state with all prices set to the opening price.
func NewInstrumentState(in Instrument, opening Price) InstrumentState {
	if opening < MinPrice {
		opening = MinPrice
	}
	return InstrumentState{
		Instrument:    in,
		CurrentPrice:  opening,
		PreviousPrice: opening,
		DayStartPrice: opening,
	}
}

// Direction reports the movement since the previous tick.
func (s InstrumentState) Direction() Direction {
	return DirectionOf(s.PreviousPrice, s.CurrentPrice)
}

// HoldingValue is the market value of the shares held at the current price.
func (s InstrumentState) HoldingValue() Price {
	return s.CurrentPrice * Price(s.SharesHeld)
}

// Install shifts the current price into PreviousPrice and sets a new current price.
func (s *InstrumentState) Install(p Price) {
	if p < MinPrice {
		p = MinPrice
	}
	s.PreviousPrice = s.CurrentPrice
	s.CurrentPrice = p
}
