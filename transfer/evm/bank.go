// Package evm implements the escrow transfer primitive on an EVM chain: a
// native-value transaction from the escrow key to the destination address,
// with the outcome reported once the receipt lands.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/matchfund/matchfund/go/transfer"
)

const (
	transferGasLimit    = 21000
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// Bank submits escrow transfers as signed value transactions and polls for
// their receipts in the background.
type Bank struct {
	client       *ethclient.Client
	key          *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Option configures a Bank.
type Option func(*Bank)

// WithPollInterval sets how often receipts are polled for.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bank) { b.pollInterval = d }
}

// WithPollTimeout bounds how long a receipt is waited for before the
// transfer is reported as failed.
func WithPollTimeout(d time.Duration) Option {
	return func(b *Bank) { b.pollTimeout = d }
}

// NewBank creates a bank from an RPC endpoint and a hex-encoded escrow
// private key (with or without "0x" prefix).
func NewBank(ctx context.Context, rpcURL, privateKeyHex string, opts ...Option) (*Bank, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid escrow key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	b := &Bank{
		client:       client,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// EscrowAddress returns the address funds leave escrow from.
func (b *Bank) EscrowAddress() string {
	return b.from.Hex()
}

// TransferFromEscrow implements transfer.Bank. The destination must be a hex
// address; the amount is denominated in the chain's smallest unit.
func (b *Bank) TransferFromEscrow(ctx context.Context, id transfer.ID, destination string, amt *big.Int, resolve transfer.ResolveFunc) error {
	if !common.IsHexAddress(destination) {
		return fmt.Errorf("destination %q is not a hex address", destination)
	}
	to := common.HexToAddress(destination)

	nonce, err := b.client.PendingNonceAt(ctx, b.from)
	if err != nil {
		return fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, amt, transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(b.chainID), b.key)
	if err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send transfer: %w", err)
	}

	go b.awaitReceipt(id, signed.Hash(), resolve)
	return nil
}

// awaitReceipt polls for the transaction receipt and delivers the outcome.
// A timed-out or reverted transaction is reported as failed; no funds leave
// escrow for a reverted value transfer.
func (b *Bank) awaitReceipt(id transfer.ID, txHash common.Hash, resolve transfer.ResolveFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), b.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				resolve(id, transfer.OutcomeSucceeded)
			} else {
				resolve(id, transfer.OutcomeFailed)
			}
			return
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
