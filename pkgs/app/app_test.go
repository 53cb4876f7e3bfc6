package app

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/controller"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/feed"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/session"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/wallet"
)

var (
	acctA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	acctB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fakeProvider struct {
	*wallet.Dispatcher
	accounts  []common.Address
	onRequest func() // observation hook, runs inside RequestAccounts
}

func newFakeProvider(accounts ...common.Address) *fakeProvider {
	return &fakeProvider{Dispatcher: wallet.NewDispatcher(), accounts: accounts}
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if f.onRequest != nil {
		f.onRequest()
	}
	return f.accounts, nil
}

func (f *fakeProvider) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeProvider) ChainID() *big.Int { return big.NewInt(1337) }

func (f *fakeProvider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}

type fakeReader struct {
	posts []ledger.Post
	reads int
}

func (f *fakeReader) ReadCount(ctx context.Context) (uint64, error) {
	return uint64(len(f.posts)), nil
}

func (f *fakeReader) ReadPost(ctx context.Context, index uint64) (ledger.Post, error) {
	f.reads++
	return f.posts[index-1], nil
}

func remoteFeed(count int) []ledger.Post {
	var posts []ledger.Post
	for i := 1; i <= count; i++ {
		posts = append(posts, ledger.Post{
			Author:    acctA,
			Content:   fmt.Sprintf("post %d", i),
			Timestamp: int64(1000 + i),
			Index:     uint64(i),
		})
	}
	return posts
}

func fixture(provider *fakeProvider, reader *fakeReader) *App {
	binding := session.NewBinding(provider)
	store := feed.NewStore()
	ctrl := controller.New(binding, nil, store)
	return New(context.Background(), binding, reader, store, ctrl, 1)
}

func TestConnectPullsFullFeed(t *testing.T) {
	provider := newFakeProvider(acctA)
	reader := &fakeReader{posts: remoteFeed(4)}
	application := fixture(provider, reader)

	require.NoError(t, application.Connect(context.Background()))

	state := application.CurrentState()
	assert.True(t, state.Connected)
	assert.Equal(t, acctA, state.Account)
	assert.False(t, state.Loading)
	require.Len(t, state.Feed, 4)
	for k, post := range state.Feed {
		assert.Equal(t, uint64(k+1), post.Index)
	}
}

func TestChainChangedHardResetsAndReconnects(t *testing.T) {
	provider := newFakeProvider(acctA)
	reader := &fakeReader{posts: remoteFeed(3)}
	application := fixture(provider, reader)
	require.NoError(t, application.Connect(context.Background()))

	// Capture what the presentation layer would observe while the reset
	// is reconnecting: loading with an empty feed.
	var midReset State
	var captured bool
	provider.onRequest = func() {
		midReset = application.CurrentState()
		captured = true
	}

	provider.EmitChainChanged(big.NewInt(5))

	require.True(t, captured, "chain switch triggers a fresh connect")
	assert.True(t, midReset.Loading, "reset shows loading before the fresh pull")
	assert.Empty(t, midReset.Feed, "derived feed state is discarded on chain switch")

	// After the reset completes a fresh connect + reload has run.
	state := application.CurrentState()
	assert.True(t, state.Connected)
	assert.False(t, state.Loading)
	assert.Len(t, state.Feed, 3)
}

func TestAccountsChangedKeepsFeed(t *testing.T) {
	provider := newFakeProvider(acctA)
	reader := &fakeReader{posts: remoteFeed(2)}
	application := fixture(provider, reader)
	require.NoError(t, application.Connect(context.Background()))
	readsAfterConnect := reader.reads

	provider.EmitAccountsChanged([]common.Address{acctB})

	state := application.CurrentState()
	assert.Equal(t, acctB, state.Account, "active account follows the provider")
	assert.Len(t, state.Feed, 2, "the feed belongs to the ledger, not the viewer")
	assert.Equal(t, readsAfterConnect, reader.reads, "no re-pull on account switch")
}

func TestAccountsChangedEmptyDisconnects(t *testing.T) {
	provider := newFakeProvider(acctA)
	reader := &fakeReader{posts: remoteFeed(1)}
	application := fixture(provider, reader)
	require.NoError(t, application.Connect(context.Background()))

	provider.EmitAccountsChanged(nil)

	state := application.CurrentState()
	assert.False(t, state.Connected)
	assert.Len(t, state.Feed, 1)
}

func TestReloadFailureKeepsPriorFeed(t *testing.T) {
	provider := newFakeProvider(acctA)
	reader := &fakeReader{posts: remoteFeed(2)}
	application := fixture(provider, reader)
	require.NoError(t, application.Connect(context.Background()))

	failing := &failingReader{}
	application.reader = failing
	err := application.Reload(context.Background())
	require.Error(t, err)

	assert.Len(t, application.CurrentState().Feed, 2, "prior feed stays authoritative")
}

type failingReader struct{}

func (f *failingReader) ReadCount(ctx context.Context) (uint64, error) {
	return 0, ledger.ErrRemoteRead
}

func (f *failingReader) ReadPost(ctx context.Context, index uint64) (ledger.Post, error) {
	return ledger.Post{}, ledger.ErrRemoteRead
}
