package feed

import (
	"sync"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
)

// dedupWindow is how close an optimistic post's local timestamp must be
// to a remote post's on-chain timestamp for the two to be treated as the
// same submission.
const dedupWindow = 600 // seconds

// Store holds the in-memory feed. Exactly two producers mutate it: a
// reload commits a full replacement and a successful submission prepends
// one optimistic post. Optimistic posts (Index 0) stay at the head until
// a reload observes them in the ledger.
type Store struct {
	mu    sync.RWMutex
	posts []ledger.Post
}

// NewStore creates an empty feed store
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current feed, newest-first for
// optimistic entries, ascending by index for the reloaded tail.
func (s *Store) Snapshot() []ledger.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Len returns the number of posts currently held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Prepend puts an optimistic post at the head of the feed
func (s *Store) Prepend(post ledger.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]ledger.Post{post}, s.posts...)
}

// Replace commits a fully reloaded feed. Optimistic posts from the old
// feed survive at the head unless the reload already contains a matching
// remote post, in which case the remote entry wins and the local
// placeholder is dropped.
func (s *Store) Replace(reloaded []ledger.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var surviving []ledger.Post
	for _, p := range s.posts {
		if !p.Optimistic() {
			break // optimistic posts are only ever at the head
		}
		if !matchedRemotely(p, reloaded) {
			surviving = append(surviving, p)
		}
	}

	next := make([]ledger.Post, 0, len(surviving)+len(reloaded))
	next = append(next, surviving...)
	next = append(next, reloaded...)
	s.posts = next
}

// Clear drops everything, used on a chain switch
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = nil
}

// matchedRemotely reports whether an optimistic post appears in the
// reloaded feed: same author, same content, on-chain timestamp within
// the dedup window of the local submission time.
func matchedRemotely(optimistic ledger.Post, reloaded []ledger.Post) bool {
	for _, r := range reloaded {
		if r.Author != optimistic.Author || r.Content != optimistic.Content {
			continue
		}
		delta := r.Timestamp - optimistic.Timestamp
		if delta < 0 {
			delta = -delta
		}
		if delta <= dedupWindow {
			return true
		}
	}
	return false
}
