// Package oracle wraps the prime iterator service to provide pi_simple,
// spec.md §6's lightweight prime-counting function used only to turn y
// and isqrt(x) into the a and b that seed P2's combinatorial term.
package oracle

import "github.com/spsforks/kimwalisch-primecount/internal/primes"

// Oracle answers pi_simple queries strictly on top of a shared
// primes.Service, never a separately maintained table. This is the
// resolution to spec.md §9's open question about whether a and b must
// share the forward/reverse cursors' convention: by construction they
// always do, since both read the same underlying table.
type Oracle struct {
	svc *primes.Service
}

// New returns an Oracle backed by svc.
func New(svc *primes.Service) *Oracle {
	return &Oracle{svc: svc}
}

// PiSimple returns pi(n), the count of primes <= n. spec.md's external
// contract is pi_simple(n, threads); this binary-search implementation
// has no use for extra parallelism, so the threads parameter is dropped
// rather than threaded through unused.
func (o *Oracle) PiSimple(n int64) int64 {
	return o.svc.Pi(n)
}
