package matchfund

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/matchfund/matchfund/go/store"
)

// Ledger is the commitment ledger: recipient → matcher → amount, amounts in
// base units. It is the sole owner of commitment amounts; zero-valued entries
// never persist, so "no pledge" and "zero pledge" are the same observable
// state. Buckets are created lazily on first pledge and deleted eagerly when
// their last commitment is removed.
type Ledger struct {
	store store.Store
}

// NewLedger creates a ledger over the given repository.
func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// NewInMemoryLedger creates a ledger over an in-memory store.
func NewInMemoryLedger() *Ledger {
	return NewLedger(store.NewMemory())
}

// Commitment returns the amount matcher has committed to recipient. It fails
// with no_such_recipient when the recipient has no bucket at all, and with
// no_such_matcher when the bucket exists but holds no entry for matcher.
func (l *Ledger) Commitment(recipient, matcher AccountID) (*big.Int, error) {
	amt, ok, err := l.store.Get(string(recipient), string(matcher))
	if err != nil {
		return nil, fmt.Errorf("commitment lookup: %w", err)
	}
	if ok {
		return amt, nil
	}
	matchers, err := l.store.Matchers(string(recipient))
	if err != nil {
		return nil, fmt.Errorf("commitment lookup: %w", err)
	}
	if len(matchers) == 0 {
		return nil, newNoSuchRecipient(recipient)
	}
	return nil, newNoSuchMatcher(recipient, matcher)
}

// Set is the only write primitive; every higher-level operation funnels
// through it, which keeps the no-zero-entries invariant enforced in one
// place. A zero amount removes the entry (and the bucket, once empty); a
// negative amount is an invariant violation.
func (l *Ledger) Set(recipient, matcher AccountID, amount *big.Int) error {
	switch amount.Sign() {
	case -1:
		return newInvariantViolation("refusing to store negative commitment %s for %s → %s",
			amount, matcher, recipient)
	case 0:
		if err := l.store.Delete(string(recipient), string(matcher)); err != nil {
			return fmt.Errorf("remove commitment: %w", err)
		}
		matchers, err := l.store.Matchers(string(recipient))
		if err != nil {
			return fmt.Errorf("remove commitment: %w", err)
		}
		if len(matchers) == 0 {
			if err := l.store.DeleteBucket(string(recipient)); err != nil {
				return fmt.Errorf("remove empty bucket: %w", err)
			}
		}
		return nil
	default:
		if err := l.store.Put(string(recipient), string(matcher), amount); err != nil {
			return fmt.Errorf("store commitment: %w", err)
		}
		return nil
	}
}

// Bucket returns a snapshot copy of the recipient's commitments. The second
// return is false when the recipient has no bucket. Callers never receive a
// live reference into the ledger.
func (l *Ledger) Bucket(recipient AccountID) (map[AccountID]*big.Int, bool, error) {
	matchers, err := l.store.Matchers(string(recipient))
	if err != nil {
		return nil, false, fmt.Errorf("bucket snapshot: %w", err)
	}
	if len(matchers) == 0 {
		return nil, false, nil
	}
	bucket := make(map[AccountID]*big.Int, len(matchers))
	for _, matcher := range matchers {
		amt, ok, err := l.store.Get(string(recipient), matcher)
		if err != nil {
			return nil, false, fmt.Errorf("bucket snapshot: %w", err)
		}
		if !ok {
			continue
		}
		bucket[AccountID(matcher)] = amt
	}
	return bucket, true, nil
}

// DeleteBucket removes every commitment for a recipient in one logical step
// and returns the removed set. The outer level of the store need not be
// iterable, so the bulk delete is expressed as removing every known matcher
// and then the bucket itself.
func (l *Ledger) DeleteBucket(recipient AccountID) (map[AccountID]*big.Int, error) {
	removed, ok, err := l.Bucket(recipient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newNoSuchRecipient(recipient)
	}
	for matcher := range removed {
		if err := l.store.Delete(string(recipient), string(matcher)); err != nil {
			return nil, fmt.Errorf("delete bucket: %w", err)
		}
	}
	if err := l.store.DeleteBucket(string(recipient)); err != nil {
		return nil, fmt.Errorf("delete bucket: %w", err)
	}
	return removed, nil
}

// sortedMatchers returns the bucket's matchers in deterministic order.
func sortedMatchers(bucket map[AccountID]*big.Int) []AccountID {
	matchers := make([]AccountID, 0, len(bucket))
	for matcher := range bucket {
		matchers = append(matchers, matcher)
	}
	sort.Slice(matchers, func(i, j int) bool { return matchers[i] < matchers[j] })
	return matchers
}
