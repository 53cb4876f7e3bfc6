package feed

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
)

// Reader is the ledger read path the synchronizer pulls from
type Reader interface {
	ReadCount(ctx context.Context) (uint64, error)
	ReadPost(ctx context.Context, index uint64) (ledger.Post, error)
}

// Reload rebuilds the full feed: read the count, then fetch posts 1..count
// in ascending order, one round trip per index. Any failed read aborts the
// whole reload; no partial feed is ever returned. Idempotent when nothing
// was written between two calls.
func Reload(ctx context.Context, reader Reader) ([]ledger.Post, error) {
	count, err := reader.ReadCount(ctx)
	if err != nil {
		return nil, err
	}
	log.WithField("count", count).Debug("Reloading feed")

	posts := make([]ledger.Post, 0, count)
	for i := uint64(1); i <= count; i++ {
		post, err := reader.ReadPost(ctx, i)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	log.WithField("posts", len(posts)).Debug("Feed reloaded")
	return posts, nil
}

// ReloadConcurrent rebuilds the feed like Reload but issues the indexed
// reads through a bounded worker group, reassembling by index so the
// ascending-order output contract still holds. Any failure cancels the
// remaining fetches and aborts the reload.
func ReloadConcurrent(ctx context.Context, reader Reader, workers int) ([]ledger.Post, error) {
	if workers <= 1 {
		return Reload(ctx, reader)
	}

	count, err := reader.ReadCount(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]ledger.Post, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := uint64(1); i <= count; i++ {
		index := i
		g.Go(func() error {
			post, err := reader.ReadPost(gctx, index)
			if err != nil {
				return err
			}
			posts[index-1] = post
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"posts": count, "workers": workers}).Debug("Feed reloaded concurrently")
	return posts, nil
}
