package ledger

import (
	"github.com/google/uuid"

	"github.com/zappabad/daytrader/internal/session"
)

// Record is a journaled fill stamped with the session clock.
type Record struct {
	ID   uuid.UUID
	Day  int
	Time session.ClockTime
	Fill Fill
}

// Journal is a ring buffer of fills (bounded memory).
// It is not safe for concurrent use.
type Journal struct {
	buf   []Record
	size  int
	start int
	count int
	total int
}

// NewJournal creates a Journal with the given capacity.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 1
	}
	return &Journal{
		buf:  make([]Record, capacity),
		size: capacity,
	}
}

// Append records a fill and returns the stored record.
func (j *Journal) Append(st session.State, f Fill) Record {
	rec := Record{ID: uuid.New(), Day: st.Day, Time: st.Time, Fill: f}
	j.total++
	if j.count < j.size {
		j.buf[(j.start+j.count)%j.size] = rec
		j.count++
		return rec
	}
	// overwrite oldest
	j.buf[j.start] = rec
	j.start = (j.start + 1) % j.size
	return rec
}

// Last returns up to n records in chronological order, as a copy.
func (j *Journal) Last(n int) []Record {
	if n <= 0 || j.count == 0 {
		return nil
	}
	if n > j.count {
		n = j.count
	}
	out := make([]Record, n)
	first := (j.start + (j.count - n)) % j.size
	for i := 0; i < n; i++ {
		out[i] = j.buf[(first+i)%j.size]
	}
	return out
}

// Count returns the number of records held.
func (j *Journal) Count() int { return j.count }

// Total returns the number of fills ever appended.
func (j *Journal) Total() int { return j.total }
