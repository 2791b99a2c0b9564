// Package store defines the repository behind the commitment ledger: a
// two-level keyed mapping recipient → matcher → amount. Implementations do
// not interpret amounts; the invariants (no zero entries, no negative
// amounts) are enforced by the ledger above.
package store

import "math/big"

// Store is the persistence contract for commitments. The outer level is not
// required to be iterable; bulk deletion is expressed by the caller as
// "remove every known matcher, then the bucket itself".
type Store interface {
	// Get returns the amount committed by matcher to recipient, if any.
	Get(recipient, matcher string) (*big.Int, bool, error)

	// Put inserts or overwrites a commitment, creating the recipient's
	// bucket if it does not exist yet.
	Put(recipient, matcher string, amount *big.Int) error

	// Delete removes a single commitment. Deleting a missing entry is
	// not an error.
	Delete(recipient, matcher string) error

	// Matchers lists the matchers with a commitment to recipient. An
	// empty result means the recipient has no bucket.
	Matchers(recipient string) ([]string, error)

	// DeleteBucket removes the recipient's bucket and anything left in it.
	DeleteBucket(recipient string) error
}
