package matchfund

import (
	"math/big"

	"github.com/matchfund/matchfund/go/transfer"
)

// AccountID is an opaque account identifier. The same identifier may be a
// recipient in one relationship and a matcher in another.
type AccountID string

// MutationKind identifies which ledger mutation initiated a transfer.
type MutationKind string

const (
	MutationRescind MutationKind = "rescind"
	MutationDonate  MutationKind = "donate"
)

// PendingTransfer correlates an in-flight escrow transfer with the ledger
// mutation that produced it. It is created when the transfer is initiated,
// consumed exactly once by the outcome continuation, and never persisted
// beyond that. Originals holds the pre-mutation amount of every commitment
// the mutation touched, keyed by matcher; a failed transfer restores all of
// them in one step.
type PendingTransfer struct {
	ID          transfer.ID
	Kind        MutationKind
	Recipient   AccountID
	Destination AccountID
	Amount      *big.Int
	Originals   map[AccountID]*big.Int
}

// CommitmentView is one row of a recipient's commitment listing.
type CommitmentView struct {
	Matcher AccountID
	Amount  *big.Int
}

// Match describes the share one matcher contributes to a donation.
type Match struct {
	Matcher   AccountID
	Matched   *big.Int
	Remaining *big.Int
}

// OfferResult reports an accepted matching-funds offer.
type OfferResult struct {
	Matcher   AccountID
	Recipient AccountID
	Offered   *big.Int
	// Total is the matcher's commitment after the offer (offers accumulate).
	Total   *big.Int
	Message string
}

// RescindResult reports an initiated rescind. The transfer outcome arrives
// later; Remaining reflects the optimistic post-mutation commitment.
type RescindResult struct {
	Matcher   AccountID
	Recipient AccountID
	Requested *big.Int
	// Rescinded is the amount actually transferred back; requests exceeding
	// the committed amount are clamped, never failed.
	Rescinded  *big.Int
	Remaining  *big.Int
	TransferID transfer.ID
	Message    string
}

// DonateResult reports an initiated donation with its matched shares.
type DonateResult struct {
	Donor     AccountID
	Recipient AccountID
	Donation  *big.Int
	// TotalForwarded is the donation plus every matched amount, sent to the
	// recipient as a single aggregate transfer.
	TotalForwarded *big.Int
	Matches        []Match
	TransferID     transfer.ID
}
