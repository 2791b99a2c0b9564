// Package transfer defines the asynchronous escrow transfer primitive the
// ledger coordinator builds on. A Bank moves funds out of escrow and reports
// the outcome exactly once; it never reports partial transfers.
package transfer

import (
	"context"
	"math/big"

	"github.com/google/uuid"
)

// ID correlates an in-flight transfer with the ledger mutation that
// produced it.
type ID string

// NewID returns a fresh transfer identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// Outcome is the terminal result of a transfer.
type Outcome int

const (
	// OutcomeSucceeded means funds left escrow and value was delivered.
	OutcomeSucceeded Outcome = iota
	// OutcomeFailed means no funds left escrow.
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeSucceeded {
		return "succeeded"
	}
	return "failed"
}

// ResolveFunc delivers a transfer outcome back to the initiator. A bank must
// call it exactly once per initiated transfer; the call may happen
// synchronously inside TransferFromEscrow or later from another goroutine.
type ResolveFunc func(id ID, outcome Outcome)

// Bank initiates transfers out of escrow. TransferFromEscrow returns once
// the transfer has been submitted; the eventual outcome is delivered through
// resolve. A non-nil error means the transfer could not be initiated at all
// and resolve will not be called.
type Bank interface {
	TransferFromEscrow(ctx context.Context, id ID, destination string, amount *big.Int, resolve ResolveFunc) error
}
