// Package banktest provides a scriptable in-process Bank for tests and
// examples. Outcomes can be resolved synchronously, failed, or held for
// manual resolution to exercise the window between initiation and outcome.
package banktest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/matchfund/matchfund/go/transfer"
)

// Mode controls how the bank disposes of initiated transfers.
type Mode int

const (
	// Succeed resolves every transfer successfully, synchronously.
	Succeed Mode = iota
	// Fail resolves every transfer as failed, synchronously.
	Fail
	// Hold keeps transfers pending until Release is called.
	Hold
)

// Transfer records one initiated transfer.
type Transfer struct {
	ID          transfer.ID
	Destination string
	Amount      *big.Int

	resolve transfer.ResolveFunc
}

// Bank is a scriptable transfer.Bank.
type Bank struct {
	mu        sync.Mutex
	mode      Mode
	initiated []Transfer
	held      map[transfer.ID]Transfer
	initErr   error
}

// New returns a bank operating in the given mode.
func New(mode Mode) *Bank {
	return &Bank{
		mode: mode,
		held: make(map[transfer.ID]Transfer),
	}
}

// SetMode switches the disposal mode for subsequent transfers.
func (b *Bank) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// FailInitiation makes TransferFromEscrow return err synchronously.
func (b *Bank) FailInitiation(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initErr = err
}

// TransferFromEscrow implements transfer.Bank.
func (b *Bank) TransferFromEscrow(_ context.Context, id transfer.ID, destination string, amt *big.Int, resolve transfer.ResolveFunc) error {
	b.mu.Lock()
	if b.initErr != nil {
		err := b.initErr
		b.mu.Unlock()
		return err
	}
	rec := Transfer{ID: id, Destination: destination, Amount: new(big.Int).Set(amt), resolve: resolve}
	b.initiated = append(b.initiated, rec)
	mode := b.mode
	if mode == Hold {
		b.held[id] = rec
	}
	b.mu.Unlock()

	switch mode {
	case Succeed:
		resolve(id, transfer.OutcomeSucceeded)
	case Fail:
		resolve(id, transfer.OutcomeFailed)
	}
	return nil
}

// Release resolves a held transfer with the given outcome.
func (b *Bank) Release(id transfer.ID, outcome transfer.Outcome) error {
	b.mu.Lock()
	rec, ok := b.held[id]
	if ok {
		delete(b.held, id)
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no held transfer %s", id)
	}
	rec.resolve(id, outcome)
	return nil
}

// Initiated returns a copy of every transfer seen so far, in order.
func (b *Bank) Initiated() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Transfer, len(b.initiated))
	copy(out, b.initiated)
	return out
}

var _ transfer.Bank = (*Bank)(nil)
