package history

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDropsInvalidEntries(t *testing.T) {
	store := NewStore(
		Series{
			{Date: "2024-01-04", Close: 100},
			{Date: "2024-01-05", Close: math.NaN()},
			{Date: "2024-01-09", Close: 0},
			{Date: "2024-01-10", Close: 105},
		},
		Series{{Date: "2024-01-04", Close: 50}},
	)

	require.Equal(t, 2, store.Len())

	s0, err := store.Series(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 105}, s0.Closes())
	assert.True(t, store.Usable(0))

	assert.False(t, store.Usable(1))

	_, err = store.Series(2)
	assert.ErrorIs(t, err, ErrUnknownSource)
	_, err = store.Series(-1)
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.False(t, store.Usable(7))
}

func TestNilStore(t *testing.T) {
	var store *Store
	assert.Equal(t, 0, store.Len())
	_, err := store.Series(0)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestNewStoreDoesNotAliasInput(t *testing.T) {
	in := Series{{Date: "a", Close: 1}, {Date: "b", Close: 2}}
	store := NewStore(in)
	in[0].Close = 99

	s, err := store.Series(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s[0].Close)
}
