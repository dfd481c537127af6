package search

import "github.com/kailas-cloud/docqa/internal/domain/passage"

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges both signals via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
func fuseRRF(semantic, lexical []passage.Scored, topK int) []passage.Scored {
	merged := join(semantic, lexical)

	for rank, r := range semantic {
		merged[r.ID].Combined += 1.0 / float64(rrfK+rank+1)
	}
	for rank, r := range lexical {
		merged[r.ID].Combined += 1.0 / float64(rrfK+rank+1)
	}

	return sortAndCut(merged, topK)
}
