package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/controller"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/feed"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/ledger"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/metrics"
	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/session"
)

// State is the snapshot the presentation layer renders from
type State struct {
	Account       common.Address
	Connected     bool
	Loading       bool
	Feed          []ledger.Post
	ComposingText string
	IsSubmitting  bool
}

// App ties the session binding, feed synchronizer and submission
// controller together behind the boundary the presentation layer sees:
// one observable state snapshot and three intents (connect, set text,
// submit). A chain switch is a hard reset: derived state is discarded and
// the whole connect + reload sequence runs again.
type App struct {
	binding *session.Binding
	reader  feed.Reader
	store   *feed.Store
	ctrl    *controller.Controller
	workers int

	ctx context.Context

	mu      sync.RWMutex
	loading bool
}

// New wires the app and hooks the session's reset callback. ctx bounds
// the reconnects triggered by provider events.
func New(ctx context.Context, binding *session.Binding, reader feed.Reader, store *feed.Store, ctrl *controller.Controller, workers int) *App {
	a := &App{
		binding: binding,
		reader:  reader,
		store:   store,
		ctrl:    ctrl,
		workers: workers,
		ctx:     ctx,
		loading: true,
	}
	binding.OnReset = a.handleChainReset
	return a
}

// Connect establishes the provider session and pulls the full feed once
func (a *App) Connect(ctx context.Context) error {
	a.setLoading(true)
	defer a.setLoading(false)

	if err := a.binding.Connect(ctx); err != nil {
		return err
	}
	return a.reloadFeed(ctx)
}

// Reload re-pulls the full feed on demand
func (a *App) Reload(ctx context.Context) error {
	return a.reloadFeed(ctx)
}

func (a *App) reloadFeed(ctx context.Context) error {
	posts, err := feed.ReloadConcurrent(ctx, a.reader, a.workers)
	if err != nil {
		metrics.FeedReloadFailures.Inc()
		return err
	}
	metrics.FeedReloads.Inc()
	a.store.Replace(posts)
	return nil
}

// handleChainReset discards all derived state and restarts the session.
// Transaction semantics and the contract address are chain-specific, so
// nothing read on the old chain survives.
func (a *App) handleChainReset(chainID *big.Int) {
	a.setLoading(true)
	a.store.Clear()

	if err := a.Connect(a.ctx); err != nil {
		log.WithError(err).Error("Reconnect after chain switch failed")
	}
}

// SetComposingText forwards the text-change intent
func (a *App) SetComposingText(s string) {
	a.ctrl.SetComposingText(s)
}

// Submit forwards the submit intent
func (a *App) Submit(ctx context.Context) error {
	return a.ctrl.Submit(ctx)
}

// Teardown releases the session's provider subscriptions
func (a *App) Teardown() {
	a.binding.Teardown()
}

// CurrentState snapshots everything the presentation layer renders
func (a *App) CurrentState() State {
	account, connected := a.binding.ActiveAccount()
	return State{
		Account:       account,
		Connected:     connected,
		Loading:       a.isLoading(),
		Feed:          a.store.Snapshot(),
		ComposingText: a.ctrl.ComposingText(),
		IsSubmitting:  a.ctrl.IsSubmitting(),
	}
}

func (a *App) setLoading(v bool) {
	a.mu.Lock()
	a.loading = v
	a.mu.Unlock()
}

func (a *App) isLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}
