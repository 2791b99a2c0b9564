package matchfund

import "math/big"

// ComputeMatches determines, for every matcher in the bucket snapshot, the
// amount it matches toward a donation: min(donation, current commitment),
// with the remainder staying committed. The returned total is the donation
// plus every matched amount — the single aggregate sum to forward to the
// recipient. The function is pure; callers apply the remainders to the
// ledger themselves.
//
// An empty bucket yields the donation alone and no matches. A zero or
// negative donation must be rejected by the caller before reaching this
// point.
func ComputeMatches(donation *big.Int, bucket map[AccountID]*big.Int) (*big.Int, []Match) {
	total := new(big.Int).Set(donation)
	matches := make([]Match, 0, len(bucket))
	for _, matcher := range sortedMatchers(bucket) {
		commitment := bucket[matcher]
		matched := new(big.Int).Set(donation)
		if commitment.Cmp(matched) < 0 {
			matched.Set(commitment)
		}
		remaining := new(big.Int).Sub(commitment, matched)
		total.Add(total, matched)
		matches = append(matches, Match{
			Matcher:   matcher,
			Matched:   matched,
			Remaining: remaining,
		})
	}
	return total, matches
}
