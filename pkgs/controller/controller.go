package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/feed"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/metrics"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/session"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/wallet"
)

var (
	// ErrEmptyContent indicates the composed post is empty after trimming.
	// Validation only; it never reaches the network.
	ErrEmptyContent = errors.New("post content is empty")

	// ErrNoBinding indicates the contract binding was never configured
	ErrNoBinding = errors.New("no contract binding")

	// ErrBusy indicates a submission is already in flight on this controller
	ErrBusy = errors.New("a submission is already in flight")
)

// State is the submission state machine's current phase
type State int32

const (
	Idle State = iota
	Validating
	AwaitingSignature
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case AwaitingSignature:
		return "awaiting_signature"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Writer is the ledger write path the controller submits through
type Writer interface {
	SubmitPost(ctx context.Context, provider wallet.Provider, signer common.Address, nonce uint64, content string) (*ledger.Receipt, error)
}

// Controller orchestrates one post-creation attempt at a time: validate,
// re-authorize, fetch a fresh nonce, submit, then reconcile local state.
// The in-flight guard is advisory UI debouncing; two controllers in two
// processes can still race, and the ledger's nonce rules arbitrate that.
type Controller struct {
	binding *session.Binding
	writer  Writer
	store   *feed.Store

	state atomic.Int32

	mu        sync.Mutex
	composing string

	// now is swapped in tests to pin the optimistic timestamp
	now func() time.Time
}

// New creates a controller over the given session, ledger write path and
// feed store.
func New(binding *session.Binding, writer Writer, store *feed.Store) *Controller {
	return &Controller{
		binding: binding,
		writer:  writer,
		store:   store,
		now:     time.Now,
	}
}

// SetComposingText replaces the composing buffer
func (c *Controller) SetComposingText(s string) {
	c.mu.Lock()
	c.composing = s
	c.mu.Unlock()
}

// ComposingText returns the current composing buffer
func (c *Controller) ComposingText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composing
}

// IsSubmitting reports whether a submission is in flight
func (c *Controller) IsSubmitting() bool {
	return State(c.state.Load()) != Idle
}

// CurrentState returns the state machine's phase
func (c *Controller) CurrentState() State {
	return State(c.state.Load())
}

// Submit runs one submission attempt with the current composing text.
// On success the composing buffer is cleared and an optimistic post is
// prepended to the feed; on any failure the buffer is preserved so the
// user can retry. Blocks until the ledger settles the transaction.
func (c *Controller) Submit(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(Validating)) {
		return ErrBusy
	}
	defer c.state.Store(int32(Idle))

	content := strings.TrimSpace(c.ComposingText())
	if content == "" {
		return ErrEmptyContent
	}
	if c.writer == nil {
		return ErrNoBinding
	}
	signer, ok := c.binding.ActiveAccount()
	if !ok {
		return wallet.ErrNoActiveAccount
	}

	c.state.Store(int32(AwaitingSignature))

	// Re-request authorization; providers treat this as idempotent when
	// already authorized, and it surfaces a disconnect before we sign.
	if err := c.binding.Connect(ctx); err != nil {
		return fmt.Errorf("re-authorization failed: %w", err)
	}

	// The nonce comes from the provider every time. A cached value could
	// replay a sequence number after another session submitted.
	nonce, err := c.binding.PendingNonce(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sequence number: %w", err)
	}

	c.state.Store(int32(Submitting))
	started := c.now()

	receipt, err := c.writer.SubmitPost(ctx, c.binding.Provider(), signer, nonce, content)
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			metrics.UserRejections.Inc()
			log.Info("Transaction was declined at the signing prompt")
		} else {
			metrics.SubmissionFailures.Inc()
			log.WithError(err).Error("Post submission failed")
		}
		return err
	}

	metrics.PostsSubmitted.Inc()
	metrics.SubmissionDuration.Observe(c.now().Sub(started).Seconds())

	// Show the post immediately rather than waiting for a reload to
	// observe it. The placeholder carries a local timestamp and no index;
	// the next reload drops it once the ledger's own copy appears.
	c.store.Prepend(ledger.Post{
		Author:    signer,
		Content:   content,
		Timestamp: c.now().Unix(),
	})

	c.mu.Lock()
	c.composing = ""
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"tx_hash": receipt.TxHash,
		"author":  signer.Hex(),
	}).Info("Post created")
	return nil
}
