package matchfund

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/matchfund/matchfund/go/amount"
	"github.com/matchfund/matchfund/go/transfer"
)

// defaultMinimumOffer is the storage-cost floor for offers: 0.001 token.
var defaultMinimumOffer = new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)

// Coordinator owns the optimistic-update / initiate-transfer /
// confirm-or-compensate protocol shared by rescind and donate.
//
// Every mutation commits its new state to the ledger first, then initiates
// the escrow transfer; the pre-mutation amounts are captured in a
// PendingTransfer and restored only if the transfer definitively fails.
// Readers observing the ledger during the in-flight window see the
// optimistic state — that is intentional and prevents re-entrant
// double-spend while the transfer is outstanding.
//
// A single mutex serializes all mutations and outcome deliveries, standing
// in for the serialized execution environment the protocol assumes.
type Coordinator struct {
	mu     sync.Mutex
	ledger *Ledger
	bank   transfer.Bank

	minOffer *big.Int
	pending  map[transfer.ID]*PendingTransfer

	beforeTransferHooks  []BeforeTransferHook
	afterResolveHooks    []AfterResolveHook
	transferFailureHooks []TransferFailureHook
}

// NewCoordinator creates a coordinator over the given ledger and bank.
func NewCoordinator(ledger *Ledger, bank transfer.Bank, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		ledger:   ledger,
		bank:     bank,
		minOffer: new(big.Int).Set(defaultMinimumOffer),
		pending:  make(map[transfer.ID]*PendingTransfer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ledger returns the coordinator's ledger, for read-only projections.
func (c *Coordinator) Ledger() *Ledger {
	return c.ledger
}

// Offer adds amt to the matcher's existing commitment to recipient, creating
// the commitment if absent. Offers accumulate; they never overwrite. No
// transfer is initiated — the offered funds are already in escrow.
func (c *Coordinator) Offer(_ context.Context, matcher, recipient AccountID, amt *big.Int) (*OfferResult, error) {
	if amt == nil || amt.Cmp(c.minOffer) <= 0 {
		return nil, newValidationError("offer at least %s base units", c.minOffer)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing := big.NewInt(0)
	if current, err := c.ledger.Commitment(recipient, matcher); err == nil {
		existing = current
	} else if code := ErrorCode(err); code != ErrCodeNoSuchRecipient && code != ErrCodeNoSuchMatcher {
		return nil, err
	}

	total := new(big.Int).Add(existing, amt)
	if err := c.ledger.Set(recipient, matcher, total); err != nil {
		return nil, err
	}

	return &OfferResult{
		Matcher:   matcher,
		Recipient: recipient,
		Offered:   new(big.Int).Set(amt),
		Total:     total,
		Message: fmt.Sprintf("%s is now committed to match donations to %s up to a maximum of %s.",
			matcher, recipient, amount.ToHuman(total)),
	}, nil
}

// Rescind returns part or all of an unused pledge to the matcher. A request
// exceeding the committed amount silently clamps to what is available; the
// result message states whether any commitment remains. The ledger is
// updated optimistically and restored if the escrow transfer fails.
func (c *Coordinator) Rescind(ctx context.Context, matcher, recipient AccountID, requested *big.Int) (*RescindResult, error) {
	if requested == nil || requested.Sign() <= 0 {
		return nil, newValidationError("rescind amount must be positive")
	}

	c.mu.Lock()
	committed, err := c.ledger.Commitment(recipient, matcher)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	toDecrease := new(big.Int).Set(requested)
	remaining := big.NewInt(0)
	var message string
	if requested.Cmp(committed) > 0 {
		toDecrease.Set(committed)
		message = fmt.Sprintf("%s is about to rescind %s and then will not be matching donations to %s anymore",
			matcher, amount.ToHuman(toDecrease), recipient)
	} else {
		remaining.Sub(committed, toDecrease)
		message = fmt.Sprintf("%s is about to rescind %s and then will only be committed to match donations to %s up to a maximum of %s.",
			matcher, amount.ToHuman(toDecrease), recipient, amount.ToHuman(remaining))
	}

	if err := c.ledger.Set(recipient, matcher, remaining); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	rec := &PendingTransfer{
		ID:          transfer.NewID(),
		Kind:        MutationRescind,
		Recipient:   recipient,
		Destination: matcher,
		Amount:      toDecrease,
		Originals:   map[AccountID]*big.Int{matcher: new(big.Int).Set(committed)},
	}
	c.pending[rec.ID] = rec
	c.mu.Unlock()

	if err := c.initiate(ctx, rec); err != nil {
		return nil, err
	}

	return &RescindResult{
		Matcher:    matcher,
		Recipient:  recipient,
		Requested:  new(big.Int).Set(requested),
		Rescinded:  toDecrease,
		Remaining:  remaining,
		TransferID: rec.ID,
		Message:    message,
	}, nil
}

// Donate routes a donation plus a pro-rata share of every matcher's
// remaining pledge to the recipient as one aggregate transfer. All matcher
// commitments are reduced optimistically; a failed transfer restores every
// pre-match amount, not just one.
func (c *Coordinator) Donate(ctx context.Context, donor, recipient AccountID, donation *big.Int) (*DonateResult, error) {
	if donation == nil || donation.Sign() <= 0 {
		return nil, newValidationError("donating a positive amount is required")
	}

	c.mu.Lock()
	bucket, _, err := c.ledger.Bucket(recipient)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	total, matches := ComputeMatches(donation, bucket)
	originals := make(map[AccountID]*big.Int, len(matches))
	for _, m := range matches {
		originals[m.Matcher] = new(big.Int).Set(bucket[m.Matcher])
		if err := c.ledger.Set(recipient, m.Matcher, m.Remaining); err != nil {
			// Undo the writes applied so far; the donation never happened.
			for matcher, original := range originals {
				_ = c.ledger.Set(recipient, matcher, original)
			}
			c.mu.Unlock()
			return nil, err
		}
	}

	rec := &PendingTransfer{
		ID:          transfer.NewID(),
		Kind:        MutationDonate,
		Recipient:   recipient,
		Destination: recipient,
		Amount:      total,
		Originals:   originals,
	}
	c.pending[rec.ID] = rec
	c.mu.Unlock()

	if err := c.initiate(ctx, rec); err != nil {
		return nil, err
	}

	return &DonateResult{
		Donor:          donor,
		Recipient:      recipient,
		Donation:       new(big.Int).Set(donation),
		TotalForwarded: total,
		Matches:        matches,
		TransferID:     rec.ID,
	}, nil
}

// DeleteAllMatches removes every commitment for a recipient in one logical
// step and reports what was removed.
func (c *Coordinator) DeleteAllMatches(_ context.Context, recipient AccountID) (map[AccountID]*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.DeleteBucket(recipient)
}

// initiate runs the before-transfer hooks and hands the pending transfer to
// the bank. Hook aborts and initiation failures compensate immediately.
func (c *Coordinator) initiate(ctx context.Context, rec *PendingTransfer) error {
	hookCtx := TransferContext{
		ID:          rec.ID,
		Kind:        rec.Kind,
		Recipient:   rec.Recipient,
		Destination: rec.Destination,
		Amount:      new(big.Int).Set(rec.Amount),
		Timestamp:   time.Now(),
	}
	for _, hook := range c.beforeTransferHooks {
		result, err := hook(hookCtx)
		if err != nil {
			_ = c.Resolve(rec.ID, transfer.OutcomeFailed)
			return err
		}
		if result != nil && result.Abort {
			_ = c.Resolve(rec.ID, transfer.OutcomeFailed)
			return newValidationError("transfer aborted: %s", result.Reason)
		}
	}

	if err := c.bank.TransferFromEscrow(ctx, rec.ID, string(rec.Destination), rec.Amount, c.resolveFromBank); err != nil {
		_ = c.Resolve(rec.ID, transfer.OutcomeFailed)
		return NewLedgerError(ErrCodeTransferFailed,
			fmt.Sprintf("escrow transfer could not be initiated: %v", err), nil)
	}
	return nil
}

func (c *Coordinator) resolveFromBank(id transfer.ID, outcome transfer.Outcome) {
	_ = c.Resolve(id, outcome)
}

// Resolve consumes the outcome of an in-flight transfer. It is the
// exactly-once completion continuation: a success discards the pending
// record, a failure restores every captured original amount before anything
// else can observe the ledger. Resolving an unknown or already-consumed
// transfer returns unknown_transfer.
func (c *Coordinator) Resolve(id transfer.ID, outcome transfer.Outcome) error {
	c.mu.Lock()
	rec, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return NewLedgerError(ErrCodeUnknownTransfer,
			fmt.Sprintf("no pending transfer %s", id), nil)
	}
	delete(c.pending, id)

	compensated := false
	if outcome == transfer.OutcomeFailed {
		// All restorations happen in this critical section so the rollback
		// is one logical transaction over every touched commitment.
		for matcher, original := range rec.Originals {
			if err := c.ledger.Set(rec.Recipient, matcher, original); err != nil {
				c.mu.Unlock()
				return newInvariantViolation("compensation failed for %s → %s: %v",
					matcher, rec.Recipient, err)
			}
		}
		compensated = len(rec.Originals) > 0
	}
	c.mu.Unlock()

	resolveCtx := ResolveContext{
		TransferContext: TransferContext{
			ID:          rec.ID,
			Kind:        rec.Kind,
			Recipient:   rec.Recipient,
			Destination: rec.Destination,
			Amount:      new(big.Int).Set(rec.Amount),
			Timestamp:   time.Now(),
		},
		Outcome:     outcome,
		Compensated: compensated,
	}
	if outcome == transfer.OutcomeFailed {
		for _, hook := range c.transferFailureHooks {
			_ = hook(resolveCtx)
		}
	}
	for _, hook := range c.afterResolveHooks {
		_ = hook(resolveCtx)
	}
	return nil
}

// PendingCount reports how many transfers are awaiting an outcome.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
