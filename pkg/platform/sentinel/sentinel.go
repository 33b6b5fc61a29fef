package sentinel

import "errors"

// Sentinel errors for matching outcomes and infrastructure facts. The matching
// core returns these (optionally wrapped) so callers can decide between a
// fallback query, an "unknown person" report, or an abort.
//
// These represent factual states, not validation failures:
// - ErrNoMatch: the search returned zero hits, or no match key held
// - ErrNoSufficientCombination: no field subset drives the false-positive
//   probability below the significance threshold
// - ErrMatch: a grade was requested with an empty matched-key set (defensive,
//   should be unreachable)
// - ErrConfiguration: unsupported country, invalid alpha - fatal, immediate
// - ErrUnavailable: collaborator (search backend, reference store,
//   verification service) temporarily unavailable
var (
	ErrNoMatch                 = errors.New("no match")
	ErrNoSufficientCombination = errors.New("no sufficient field combination")
	ErrMatch                   = errors.New("match in inconsistent state")
	ErrConfiguration           = errors.New("configuration error")
	ErrUnavailable             = errors.New("unavailable")
)
