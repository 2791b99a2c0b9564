package matchfund

import (
	"math/big"
	"time"

	"github.com/matchfund/matchfund/go/transfer"
)

// TransferContext contains information passed to transfer hooks.
type TransferContext struct {
	ID          transfer.ID
	Kind        MutationKind
	Recipient   AccountID
	Destination AccountID
	Amount      *big.Int
	Timestamp   time.Time
}

// ResolveContext contains an outcome delivery and its originating transfer.
type ResolveContext struct {
	TransferContext
	Outcome transfer.Outcome
	// Compensated is true when a failed outcome triggered a rollback of the
	// pre-mutation commitments.
	Compensated bool
}

// BeforeHookResult represents the result of a before-transfer hook.
// If Abort is true, the mutation is rolled back before the transfer is
// initiated and the operation fails with the given Reason.
type BeforeHookResult struct {
	Abort  bool
	Reason string
}

// BeforeTransferHook is called after the optimistic ledger update but before
// the escrow transfer is initiated.
type BeforeTransferHook func(TransferContext) (*BeforeHookResult, error)

// AfterResolveHook is called after an outcome has been consumed, whether it
// succeeded or failed. Errors are ignored; the outcome is already terminal.
type AfterResolveHook func(ResolveContext) error

// TransferFailureHook is called when a transfer resolves as failed, after
// compensation has been applied.
type TransferFailureHook func(ResolveContext) error

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMinimumOffer sets the smallest acceptable matching-funds offer
// (the storage-cost floor).
func WithMinimumOffer(min *big.Int) CoordinatorOption {
	return func(c *Coordinator) {
		c.minOffer = new(big.Int).Set(min)
	}
}

// WithBeforeTransferHook registers a hook to run before each escrow transfer.
func WithBeforeTransferHook(hook BeforeTransferHook) CoordinatorOption {
	return func(c *Coordinator) {
		c.beforeTransferHooks = append(c.beforeTransferHooks, hook)
	}
}

// WithAfterResolveHook registers a hook to run after each outcome delivery.
func WithAfterResolveHook(hook AfterResolveHook) CoordinatorOption {
	return func(c *Coordinator) {
		c.afterResolveHooks = append(c.afterResolveHooks, hook)
	}
}

// WithTransferFailureHook registers a hook to run after a failed transfer
// has been compensated.
func WithTransferFailureHook(hook TransferFailureHook) CoordinatorOption {
	return func(c *Coordinator) {
		c.transferFailureHooks = append(c.transferFailureHooks, hook)
	}
}
