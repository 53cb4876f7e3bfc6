package session

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/wallet"
)

// Binding owns the relationship with the signing provider: the active
// account, the chain the provider is attached to, and the two passive
// subscriptions kept for the binding's lifetime.
//
// A chain switch invalidates everything derived from the old chain, so
// the binding only reports it upward through OnReset; the owner is
// expected to discard state and connect again. An account switch keeps
// the feed (the feed belongs to the ledger, not the viewer).
type Binding struct {
	provider wallet.Provider

	mu      sync.RWMutex
	account common.Address
	hasAcct bool
	chainID *big.Int

	unsubChain    func()
	unsubAccounts func()

	// OnReset is invoked on a chain switch, after internal state is
	// cleared. Set before Connect.
	OnReset func(chainID *big.Int)

	// OnAccount is invoked when the active account changes, with the
	// zero address meaning disconnected. Optional.
	OnAccount func(account common.Address, connected bool)
}

// NewBinding creates a binding over the given provider. A nil provider
// is legal; Connect then fails with ErrProviderUnavailable so the caller
// can tell the user to install a wallet.
func NewBinding(provider wallet.Provider) *Binding {
	return &Binding{provider: provider}
}

// Connect requests account authorization and registers the chain and
// account subscriptions. Calling Connect on an already connected binding
// re-requests authorization, which providers treat as idempotent.
func (b *Binding) Connect(ctx context.Context) error {
	if b.provider == nil {
		return wallet.ErrProviderUnavailable
	}

	accounts, err := b.provider.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("account authorization failed: %w", err)
	}
	if len(accounts) == 0 {
		return wallet.ErrNoActiveAccount
	}

	b.mu.Lock()
	b.account = accounts[0]
	b.hasAcct = true
	b.chainID = b.provider.ChainID()
	b.mu.Unlock()

	log.WithFields(log.Fields{
		"account": accounts[0].Hex(),
		"chain":   b.provider.ChainID().String(),
	}).Info("Connected to signing provider")

	b.subscribe()
	return nil
}

// subscribe registers both provider subscriptions, replacing any
// previous registration so a repeated Connect does not leak handlers.
func (b *Binding) subscribe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubChain != nil {
		b.unsubChain()
	}
	if b.unsubAccounts != nil {
		b.unsubAccounts()
	}

	b.unsubChain = b.provider.SubscribeChainChanged(b.handleChainChanged)
	b.unsubAccounts = b.provider.SubscribeAccountsChanged(b.handleAccountsChanged)
}

func (b *Binding) handleChainChanged(chainID *big.Int) {
	log.WithField("chain", chainID.String()).Warn("Chain changed, discarding session state")

	b.mu.Lock()
	b.account = common.Address{}
	b.hasAcct = false
	b.chainID = new(big.Int).Set(chainID)
	b.mu.Unlock()

	if b.OnReset != nil {
		b.OnReset(chainID)
	}
}

func (b *Binding) handleAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		log.Info("Provider disconnected all accounts")
		b.mu.Lock()
		b.account = common.Address{}
		b.hasAcct = false
		b.mu.Unlock()

		if b.OnAccount != nil {
			b.OnAccount(common.Address{}, false)
		}
		return
	}

	log.WithField("account", accounts[0].Hex()).Info("Active account changed")
	b.mu.Lock()
	b.account = accounts[0]
	b.hasAcct = true
	b.mu.Unlock()

	if b.OnAccount != nil {
		b.OnAccount(accounts[0], true)
	}
}

// ActiveAccount returns the current account, or false if disconnected
func (b *Binding) ActiveAccount() (common.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.account, b.hasAcct
}

// ChainID returns the chain reported at the last connect or switch,
// or nil if never connected.
func (b *Binding) ChainID() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.chainID == nil {
		return nil
	}
	return new(big.Int).Set(b.chainID)
}

// PendingNonce reads the active account's sequence number from the
// provider. Fails fast with ErrNoActiveAccount after a disconnect so a
// stale identity never reaches the wire.
func (b *Binding) PendingNonce(ctx context.Context) (uint64, error) {
	account, ok := b.ActiveAccount()
	if !ok {
		return 0, wallet.ErrNoActiveAccount
	}
	return b.provider.PendingNonce(ctx, account)
}

// Provider exposes the underlying provider for components that need to
// sign through it.
func (b *Binding) Provider() wallet.Provider {
	return b.provider
}

// Teardown releases both subscriptions. Safe to call more than once.
func (b *Binding) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubChain != nil {
		b.unsubChain()
		b.unsubChain = nil
	}
	if b.unsubAccounts != nil {
		b.unsubAccounts()
		b.unsubAccounts = nil
	}
	b.account = common.Address{}
	b.hasAcct = false
}
