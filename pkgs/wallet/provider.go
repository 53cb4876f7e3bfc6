package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrProviderUnavailable indicates no signing provider is configured or reachable
	ErrProviderUnavailable = errors.New("no signing provider available")

	// ErrUserRejected indicates the signer declined an authorization or signature prompt
	ErrUserRejected = errors.New("user rejected the request")

	// ErrNoActiveAccount indicates a write was attempted without an authorized account
	ErrNoActiveAccount = errors.New("no active account")
)

// Approver stands in for the wallet's confirmation prompt. It is asked
// before account authorization and before every signature. A nil Approver
// approves everything.
type Approver func(ctx context.Context, action string) bool

// Provider is the signing provider the client talks to: it holds key
// material, authorizes accounts, reports per-account nonces, signs
// transactions and pushes chain/account change events.
type Provider interface {
	// RequestAccounts asks the provider to authorize its accounts.
	// The first returned account is the active one.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// PendingNonce returns the account's next transaction sequence number,
	// read from the provider directly rather than any local cache.
	PendingNonce(ctx context.Context, account common.Address) (uint64, error)

	// ChainID reports the chain the provider is attached to.
	ChainID() *big.Int

	// SignTx asks the provider to sign a transaction on behalf of account.
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error)

	// SubscribeChainChanged registers a handler for chain switches.
	// The returned function unsubscribes it.
	SubscribeChainChanged(handler func(chainID *big.Int)) (unsubscribe func())

	// SubscribeAccountsChanged registers a handler for account set changes.
	// An empty slice means the provider disconnected all accounts.
	SubscribeAccountsChanged(handler func(accounts []common.Address)) (unsubscribe func())
}
