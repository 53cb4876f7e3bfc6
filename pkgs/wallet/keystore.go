package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// KeystoreProvider is a Provider backed by a single locally held private
// key and an Ethereum node. The Approver hook takes the place of the
// wallet extension's confirmation prompt.
type KeystoreProvider struct {
	*Dispatcher

	client   *ethclient.Client
	key      *ecdsa.PrivateKey
	account  common.Address
	approver Approver

	mu      sync.Mutex
	chainID *big.Int
}

// NewKeystoreProvider dials the node and derives the account from the
// hex-encoded private key.
func NewKeystoreProvider(rpcURL string, hexKey string, chainID int64, approver Approver) (*KeystoreProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &KeystoreProvider{
		Dispatcher: NewDispatcher(),
		client:     client,
		key:        key,
		account:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    big.NewInt(chainID),
		approver:   approver,
	}, nil
}

// RequestAccounts authorizes the keystore account. Asking again while
// already authorized is idempotent from the caller's perspective.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.approver != nil && !p.approver(ctx, fmt.Sprintf("connect account %s", p.account.Hex())) {
		return nil, ErrUserRejected
	}
	return []common.Address{p.account}, nil
}

// PendingNonce reads the account's next nonce from the node, including
// pending transactions, so two submissions in a row do not reuse one.
func (p *KeystoreProvider) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := p.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

// ChainID reports the chain the provider is attached to
func (p *KeystoreProvider) ChainID() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.chainID)
}

// SignTx signs with the keystore key after consulting the approver
func (p *KeystoreProvider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error) {
	if account != p.account {
		return nil, fmt.Errorf("%w: %s is not held by this provider", ErrNoActiveAccount, account.Hex())
	}
	if p.approver != nil && !p.approver(ctx, fmt.Sprintf("sign transaction from %s (nonce %d)", account.Hex(), tx.Nonce())) {
		return nil, ErrUserRejected
	}

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(p.ChainID()), p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

// Client exposes the underlying node connection for the ledger backend
func (p *KeystoreProvider) Client() *ethclient.Client {
	return p.client
}

// WatchChain polls the node's chain id and emits a chainChanged event
// when it differs from the last observed value. Blocks until ctx is done.
func (p *KeystoreProvider) WatchChain(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := p.ChainID()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := p.client.ChainID(ctx)
			if err != nil {
				logrus.WithError(err).Debug("Failed to poll chain id")
				continue
			}
			if current.Cmp(last) != 0 {
				logrus.WithFields(logrus.Fields{
					"old_chain": last.String(),
					"new_chain": current.String(),
				}).Warn("Chain switched")
				last.Set(current)
				p.mu.Lock()
				p.chainID.Set(current)
				p.mu.Unlock()
				p.EmitChainChanged(new(big.Int).Set(current))
			}
		}
	}
}

// Close closes the node connection
func (p *KeystoreProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
