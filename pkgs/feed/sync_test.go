package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
)

type fakeReader struct {
	posts    []ledger.Post // 1-based: posts[0] is index 1
	countErr error
	failAt   uint64
	reads    atomic.Int64
}

func (f *fakeReader) ReadCount(ctx context.Context) (uint64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return uint64(len(f.posts)), nil
}

func (f *fakeReader) ReadPost(ctx context.Context, index uint64) (ledger.Post, error) {
	f.reads.Add(1)
	if f.failAt != 0 && index == f.failAt {
		return ledger.Post{}, ledger.ErrRemoteRead
	}
	if index < 1 || index > uint64(len(f.posts)) {
		return ledger.Post{}, fmt.Errorf("%w: index %d out of range", ledger.ErrRemoteRead, index)
	}
	return f.posts[index-1], nil
}

func ledgerWith(count int) *fakeReader {
	reader := &fakeReader{}
	for i := 1; i <= count; i++ {
		reader.posts = append(reader.posts, ledger.Post{
			Author:    common.HexToAddress(fmt.Sprintf("0x%040x", i)),
			Content:   fmt.Sprintf("post %d", i),
			Timestamp: int64(1700000000 + i),
			Index:     uint64(i),
		})
	}
	return reader
}

func TestReloadProducesAscendingFeed(t *testing.T) {
	for _, count := range []int{0, 1, 7} {
		reader := ledgerWith(count)

		posts, err := Reload(context.Background(), reader)
		require.NoError(t, err)
		require.Len(t, posts, count)
		for k, post := range posts {
			assert.Equal(t, uint64(k+1), post.Index)
		}
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	reader := ledgerWith(5)

	first, err := Reload(context.Background(), reader)
	require.NoError(t, err)
	second, err := Reload(context.Background(), reader)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReloadAbortsOnCountFailure(t *testing.T) {
	reader := &fakeReader{countErr: ledger.ErrRemoteRead}

	posts, err := Reload(context.Background(), reader)
	require.ErrorIs(t, err, ledger.ErrRemoteRead)
	assert.Nil(t, posts)
	assert.Zero(t, reader.reads.Load())
}

func TestReloadAbortsOnSingleReadFailure(t *testing.T) {
	reader := ledgerWith(6)
	reader.failAt = 4

	posts, err := Reload(context.Background(), reader)
	require.ErrorIs(t, err, ledger.ErrRemoteRead)
	assert.Nil(t, posts, "no partial feed may be committed")
}

func TestReloadConcurrentMatchesSequential(t *testing.T) {
	reader := ledgerWith(23)

	sequential, err := Reload(context.Background(), reader)
	require.NoError(t, err)

	concurrent, err := ReloadConcurrent(context.Background(), ledgerWith(23), 8)
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
}

func TestReloadConcurrentAbortsOnFailure(t *testing.T) {
	reader := ledgerWith(10)
	reader.failAt = 7

	posts, err := ReloadConcurrent(context.Background(), reader, 4)
	require.Error(t, err)
	assert.Nil(t, posts)
}

func TestReloadConcurrentSingleWorkerFallsBack(t *testing.T) {
	posts, err := ReloadConcurrent(context.Background(), ledgerWith(3), 1)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestReloadConcurrentError(t *testing.T) {
	wrapped := errors.New("rpc timeout")
	reader := &fakeReader{countErr: wrapped}

	_, err := ReloadConcurrent(context.Background(), reader, 4)
	require.ErrorIs(t, err, wrapped)
}
