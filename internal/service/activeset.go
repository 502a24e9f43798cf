package service

import (
	"math/rand"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// Active-set allocation over the trace pool. The pool's chronological order
// (ascending seq) is the reference order for every strategy here.

// chronologicalPrefix returns the IDs of the first limit traces in pool
// order. A limit at or above the pool size returns the whole pool.
func chronologicalPrefix(traces []domain.Trace, limit int) []string {
	if limit > len(traces) {
		limit = len(traces)
	}
	ids := make([]string, 0, limit)
	for _, t := range traces[:limit] {
		ids = append(ids, t.ID)
	}
	return ids
}

// randomSample draws limit trace IDs without replacement using the given
// source. The sample's order is the draw order, which becomes the
// presentation order for annotation.
func randomSample(traces []domain.Trace, limit int, rng *rand.Rand) []string {
	if limit > len(traces) {
		limit = len(traces)
	}
	perm := rng.Perm(len(traces))
	ids := make([]string, 0, limit)
	for _, idx := range perm[:limit] {
		ids = append(ids, traces[idx].ID)
	}
	return ids
}

// complement returns the pool traces not in active, preserving pool order
func complement(traces []domain.Trace, active []string) []string {
	inActive := make(map[string]bool, len(active))
	for _, id := range active {
		inActive[id] = true
	}
	var rest []string
	for _, t := range traces {
		if !inActive[t.ID] {
			rest = append(rest, t.ID)
		}
	}
	return rest
}

// growActiveSet appends up to count traces from the chronological complement
// of the pool to the active set. Existing members keep their positions.
// Returns the grown set and how many traces were actually added, which is
// zero when the complement is empty.
func growActiveSet(traces []domain.Trace, active []string, count int) ([]string, int) {
	rest := complement(traces, active)
	if count > len(rest) {
		count = len(rest)
	}
	grown := make([]string, 0, len(active)+count)
	grown = append(grown, active...)
	grown = append(grown, rest[:count]...)
	return grown, count
}

// isPermutation reports whether got reorders exactly the members of want
func isPermutation(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	counts := make(map[string]int, len(want))
	for _, id := range want {
		counts[id]++
	}
	for _, id := range got {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}
