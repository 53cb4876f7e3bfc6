package wallet

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Dispatcher fans provider events out to subscribers. Handlers are keyed
// by an internal id so an unsubscribe closure removes exactly its own
// registration, even under concurrent subscribe/unsubscribe.
type Dispatcher struct {
	mu              sync.RWMutex
	nextID          uint64
	chainHandlers   map[uint64]func(*big.Int)
	accountHandlers map[uint64]func([]common.Address)
}

// NewDispatcher creates an empty event dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		chainHandlers:   make(map[uint64]func(*big.Int)),
		accountHandlers: make(map[uint64]func([]common.Address)),
	}
}

// SubscribeChainChanged registers a chain change handler
func (d *Dispatcher) SubscribeChainChanged(handler func(chainID *big.Int)) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.chainHandlers[id] = handler
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.chainHandlers, id)
		d.mu.Unlock()
	}
}

// SubscribeAccountsChanged registers an account change handler
func (d *Dispatcher) SubscribeAccountsChanged(handler func(accounts []common.Address)) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.accountHandlers[id] = handler
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.accountHandlers, id)
		d.mu.Unlock()
	}
}

// EmitChainChanged delivers a chain switch to all subscribers
func (d *Dispatcher) EmitChainChanged(chainID *big.Int) {
	d.mu.RLock()
	handlers := make([]func(*big.Int), 0, len(d.chainHandlers))
	for _, h := range d.chainHandlers {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(chainID)
	}
}

// EmitAccountsChanged delivers an account set change to all subscribers
func (d *Dispatcher) EmitAccountsChanged(accounts []common.Address) {
	d.mu.RLock()
	handlers := make([]func([]common.Address), 0, len(d.accountHandlers))
	for _, h := range d.accountHandlers {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(accounts)
	}
}
