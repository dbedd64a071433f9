package primes

// Service is the handle P2's worker and oracle code hold onto: a shared,
// growable Table plus the two cursor constructors spec.md §4.1 specifies.
// A single Service is meant to be shared across every worker in a round
// (and across rounds), so the table's sieve work is never repeated.
type Service struct {
	table *Table
}

// NewService returns a Service backed by a fresh, empty Table.
func NewService() *Service {
	return &Service{table: NewTable()}
}

// GrowTo ensures the underlying table covers every prime <= n.
func (s *Service) GrowTo(n int64) {
	s.table.GrowTo(n)
}

// Pi returns the count of primes <= x, growing the table to cover x
// first if needed.
func (s *Service) Pi(x int64) int64 {
	s.table.GrowTo(x)
	return s.table.Pi(x)
}

// Forward returns a cursor whose Next() yields the smallest prime >= seed
// and ascends from there. stopHint bounds how far the cursor is ever
// expected to be advanced, so the table can be grown once, up front,
// rather than on every Next() call.
func (s *Service) Forward(seed, stopHint int64) *ForwardCursor {
	s.table.GrowTo(stopHint)
	return &ForwardCursor{table: s.table, idx: s.table.indexAtLeast(seed)}
}

// Reverse returns a cursor whose Prev() yields the largest prime <= seed
// and descends from there. The table is grown to cover seed before the
// starting index is located.
func (s *Service) Reverse(seed, floorHint int64) *ReverseCursor {
	s.table.GrowTo(seed)
	return &ReverseCursor{table: s.table, idx: s.table.indexAtMost(seed)}
}
