package primes

// ForwardCursor yields primes in ascending order starting from a given
// seed, per spec.md §4.1: Next() returns the smallest prime >= seed on
// the first call, and the next ascending prime on every call after, with
// 0 once the cursor is exhausted.
type ForwardCursor struct {
	table *Table
	idx   int
}

// Next returns the next ascending prime, or 0 if the table has no more
// (the caller is responsible for having grown the table far enough that
// exhaustion means "no more primes in range," not "table too small").
func (c *ForwardCursor) Next() int64 {
	if c.idx >= c.table.Len() {
		return 0
	}
	p := c.table.At(c.idx)
	c.idx++
	return p
}

// ReverseCursor yields primes in descending order starting from a given
// seed: Prev() returns the largest prime <= seed on the first call, and
// the next descending prime on every call after, with 0 once exhausted.
type ReverseCursor struct {
	table *Table
	idx   int // next index to return; -1 once exhausted
}

// Prev returns the next descending prime, or 0 once exhausted.
func (c *ReverseCursor) Prev() int64 {
	if c.idx < 0 {
		return 0
	}
	p := c.table.At(c.idx)
	c.idx--
	return p
}
