// Package svm implements the escrow transfer primitive on Solana: a
// system-program transfer from the escrow key to the destination account,
// with the outcome reported once the signature finalizes.
package svm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/matchfund/matchfund/go/transfer"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 2 * time.Minute
)

// Bank submits escrow transfers as system-program transactions and polls
// signature statuses in the background.
type Bank struct {
	client       *rpc.Client
	key          solana.PrivateKey
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Option configures a Bank.
type Option func(*Bank)

// WithPollInterval sets how often signature statuses are polled.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bank) { b.pollInterval = d }
}

// WithPollTimeout bounds how long finalization is waited for before the
// transfer is reported as failed.
func WithPollTimeout(d time.Duration) Option {
	return func(b *Bank) { b.pollTimeout = d }
}

// NewBank creates a bank from an RPC endpoint and a base58-encoded escrow
// private key.
func NewBank(rpcURL, privateKeyBase58 string, opts ...Option) (*Bank, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid escrow key: %w", err)
	}
	b := &Bank{
		client:       rpc.New(rpcURL),
		key:          key,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// EscrowAddress returns the account funds leave escrow from.
func (b *Bank) EscrowAddress() string {
	return b.key.PublicKey().String()
}

// TransferFromEscrow implements transfer.Bank. The destination must be a
// base58 public key and the amount, denominated in lamports, must fit in 64
// bits.
func (b *Bank) TransferFromEscrow(ctx context.Context, id transfer.ID, destination string, amt *big.Int, resolve transfer.ResolveFunc) error {
	if !amt.IsUint64() {
		return fmt.Errorf("amount %s exceeds the chain's 64-bit base unit", amt)
	}
	to, err := solana.PublicKeyFromBase58(destination)
	if err != nil {
		return fmt.Errorf("destination %q is not a base58 public key: %w", destination, err)
	}

	latest, err := b.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return fmt.Errorf("latest blockhash: %w", err)
	}

	from := b.key.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(amt.Uint64(), from, to).Build(),
		},
		latest.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return fmt.Errorf("build transfer: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return &b.key
		}
		return nil
	}); err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}

	sig, err := b.client.SendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("send transfer: %w", err)
	}

	go b.awaitFinalized(id, sig, resolve)
	return nil
}

// awaitFinalized polls the signature status until it finalizes and delivers
// the outcome. A timed-out or errored transaction is reported as failed.
func (b *Bank) awaitFinalized(id transfer.ID, sig solana.Signature, resolve transfer.ResolveFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), b.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := b.client.GetSignatureStatuses(ctx, false, sig)
		if err == nil && statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				resolve(id, transfer.OutcomeFailed)
				return
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				resolve(id, transfer.OutcomeSucceeded)
				return
			}
		}

		select {
		case <-ctx.Done():
			resolve(id, transfer.OutcomeFailed)
			return
		case <-ticker.C:
		}
	}
}

var _ transfer.Bank = (*Bank)(nil)
