package history

import "errors"

var ErrUnknownSource = errors.New("unknown data source")

// Store holds one series per data source index. It is immutable after
// construction and safe to share between goroutines.
type Store struct {
	series []Series
}

// NewStore creates a Store. Invalid entries are dropped at ingestion.
func NewStore(series ...Series) *Store {
	s := &Store{series: make([]Series, len(series))}
	for i, ser := range series {
		s.series[i] = Clean(ser)
	}
	return s
}

// Series returns the series for a data source index.
// The returned slice must not be modified.
func (s *Store) Series(index int) (Series, error) {
	if s == nil || index < 0 || index >= len(s.series) {
		return nil, ErrUnknownSource
	}
	return s.series[index], nil
}

// Len returns the number of data sources.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.series)
}

// Usable reports whether the given data source can drive price movement.
func (s *Store) Usable(index int) bool {
	ser, err := s.Series(index)
	return err == nil && ser.Usable()
}
