package game

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineMisuse marks a command issued in a state that forbids it,
	// such as trading after hours. Controllers that gate their UI never see it.
	ErrEngineMisuse = errors.New("engine misuse")

	ErrClosed            = errors.New("game closed")
	ErrNotStarted        = errors.New("game not started")
	ErrAlreadyStarted    = errors.New("game already started")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrNoData            = errors.New("no usable historical data")
	ErrNoTradeOpen       = errors.New("no trade in progress")
)

func misuse(err error) error {
	return fmt.Errorf("%w: %w", ErrEngineMisuse, err)
}
