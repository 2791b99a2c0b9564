package matchfund

import (
	"math/big"
	"testing"

	"github.com/matchfund/matchfund/go/amount"
)

func TestLedgerCommitmentErrors(t *testing.T) {
	ledger := NewInMemoryLedger()

	_, err := ledger.Commitment("fundraiser", "alice")
	if ErrorCode(err) != ErrCodeNoSuchRecipient {
		t.Fatalf("expected no_such_recipient, got %v", err)
	}

	if err := ledger.Set("fundraiser", "bob", amount.MustParse("1")); err != nil {
		t.Fatal(err)
	}

	_, err = ledger.Commitment("fundraiser", "alice")
	if ErrorCode(err) != ErrCodeNoSuchMatcher {
		t.Fatalf("expected no_such_matcher, got %v", err)
	}

	got, err := ledger.Commitment("fundraiser", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(amount.MustParse("1")) != 0 {
		t.Fatalf("commitment = %s, want 1 token", got)
	}
}

func TestLedgerSetZeroRemovesEntryAndEmptyBucket(t *testing.T) {
	ledger := NewInMemoryLedger()
	if err := ledger.Set("fundraiser", "alice", amount.MustParse("0.3")); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Set("fundraiser", "bob", amount.MustParse("1")); err != nil {
		t.Fatal(err)
	}

	if err := ledger.Set("fundraiser", "alice", big.NewInt(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Commitment("fundraiser", "alice"); ErrorCode(err) != ErrCodeNoSuchMatcher {
		t.Fatalf("expected no_such_matcher after zero write, got %v", err)
	}

	// Removing the last entry removes the bucket itself.
	if err := ledger.Set("fundraiser", "bob", big.NewInt(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Commitment("fundraiser", "bob"); ErrorCode(err) != ErrCodeNoSuchRecipient {
		t.Fatalf("expected no_such_recipient after bucket emptied, got %v", err)
	}
	if _, ok, err := ledger.Bucket("fundraiser"); err != nil || ok {
		t.Fatalf("expected bucket gone, ok=%v err=%v", ok, err)
	}
}

func TestLedgerSetRejectsNegative(t *testing.T) {
	ledger := NewInMemoryLedger()
	err := ledger.Set("fundraiser", "alice", big.NewInt(-1))
	if ErrorCode(err) != ErrCodeInvariantViolation {
		t.Fatalf("expected invariant_violation, got %v", err)
	}
}

func TestLedgerBucketIsASnapshot(t *testing.T) {
	ledger := NewInMemoryLedger()
	if err := ledger.Set("fundraiser", "alice", amount.MustParse("0.3")); err != nil {
		t.Fatal(err)
	}

	bucket, ok, err := ledger.Bucket("fundraiser")
	if err != nil || !ok {
		t.Fatalf("bucket lookup failed: ok=%v err=%v", ok, err)
	}
	bucket["alice"].SetInt64(7)

	got, err := ledger.Commitment("fundraiser", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(amount.MustParse("0.3")) != 0 {
		t.Fatalf("mutating the snapshot changed the ledger: %s", got)
	}
}

func TestLedgerDeleteBucket(t *testing.T) {
	ledger := NewInMemoryLedger()
	if err := ledger.Set("fundraiser", "alice", amount.MustParse("0.3")); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Set("fundraiser", "bob", amount.MustParse("1")); err != nil {
		t.Fatal(err)
	}

	removed, err := ledger.DeleteBucket("fundraiser")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d entries, want 2", len(removed))
	}
	if removed["bob"].Cmp(amount.MustParse("1")) != 0 {
		t.Errorf("removed[bob] = %s, want 1 token", removed["bob"])
	}

	if _, err := ledger.DeleteBucket("fundraiser"); ErrorCode(err) != ErrCodeNoSuchRecipient {
		t.Fatalf("expected no_such_recipient on second delete, got %v", err)
	}
}
