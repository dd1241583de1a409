// Package notify pushes fresh ledger snapshots to live subscribers.
//
// Subscribers receive the full snapshot on subscribe and again after every
// Publish. Publish only marks the change; the hub's own goroutine reloads and
// delivers, folding changes that arrive while it is busy into one reload.
// Each subscription buffers a single value so a slow reader only ever sees
// the latest snapshot.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// ErrClosed is returned when subscribing to a closed hub.
var ErrClosed = errors.New("notify: hub closed")

// Source loads the snapshots the hub hands out.
type Source interface {
	ListFriends(ctx context.Context) ([]*models.Friend, error)
	ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.Transaction, error)
}

// Subscription delivers snapshots of type T until cancelled.
type Subscription[T any] struct {
	ch     chan T
	mu     sync.Mutex
	closed bool
	remove func()
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{ch: make(chan T, 1)}
}

// C returns the channel snapshots arrive on. It is closed by Cancel.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Cancel stops delivery and closes C. Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	if s.remove != nil {
		s.remove()
	}
}

// offer replaces any undelivered snapshot with v.
func (s *Subscription[T]) offer(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

// Hub fans ledger changes out to subscribers.
type Hub struct {
	src    Source
	logger *slog.Logger

	// pubMu orders deliveries so a stale snapshot never lands after a newer one.
	pubMu sync.Mutex

	mu      sync.Mutex
	friends map[*Subscription[[]*models.Friend]]struct{}
	txs     map[*Subscription[[]*models.Transaction]]string // value is the friend id, "" for all
	closed  bool

	// Changes not yet delivered. allDirty stands for every friend.
	dirty    map[string]struct{}
	allDirty bool

	wake    chan struct{}
	ctx     context.Context
	stop    context.CancelFunc
	stopped chan struct{}
}

// NewHub creates a hub reading snapshots from src and starts its delivery
// goroutine. Close stops it.
func NewHub(src Source, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	h := &Hub{
		src:     src,
		logger:  logger,
		friends: make(map[*Subscription[[]*models.Friend]]struct{}),
		txs:     make(map[*Subscription[[]*models.Transaction]]string),
		dirty:   make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		stop:    stop,
		stopped: make(chan struct{}),
	}
	go h.run()
	return h
}

// SubscribeFriends subscribes to the friend list, ordered by name.
func (h *Hub) SubscribeFriends(ctx context.Context) (*Subscription[[]*models.Friend], error) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	snapshot, err := h.src.ListFriends(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading friends snapshot: %w", err)
	}

	sub := newSubscription[[]*models.Friend]()
	sub.remove = func() {
		h.mu.Lock()
		delete(h.friends, sub)
		h.mu.Unlock()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.friends[sub] = struct{}{}
	h.mu.Unlock()
	sub.offer(snapshot)
	return sub, nil
}

// SubscribeTransactions subscribes to one friend's transactions, or to every
// transaction when friendID is empty. Snapshots are ordered newest date first.
func (h *Hub) SubscribeTransactions(ctx context.Context, friendID string) (*Subscription[[]*models.Transaction], error) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	snapshot, err := h.src.ListTransactions(ctx, storage.TransactionFilter{FriendID: friendID})
	if err != nil {
		return nil, fmt.Errorf("loading transactions snapshot: %w", err)
	}

	sub := newSubscription[[]*models.Transaction]()
	sub.remove = func() {
		h.mu.Lock()
		delete(h.txs, sub)
		h.mu.Unlock()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.txs[sub] = friendID
	h.mu.Unlock()
	sub.offer(snapshot)
	return sub, nil
}

// Publish marks friendID as changed and returns without waiting for the
// reload. An empty friendID refreshes every transaction subscription.
// Load failures are logged; subscribers keep their previous snapshot.
func (h *Hub) Publish(_ context.Context, friendID string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if friendID == "" {
		h.allDirty = true
	} else {
		h.dirty[friendID] = struct{}{}
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.wake:
			h.deliver(h.ctx)
		}
	}
}

// deliver reloads the snapshots touched by every change marked since the
// previous call.
func (h *Hub) deliver(ctx context.Context) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	dirty, all := h.dirty, h.allDirty
	h.dirty, h.allDirty = make(map[string]struct{}), false
	if len(dirty) == 0 && !all {
		h.mu.Unlock()
		return
	}
	friendSubs := make([]*Subscription[[]*models.Friend], 0, len(h.friends))
	for sub := range h.friends {
		friendSubs = append(friendSubs, sub)
	}
	txSubs := make(map[string][]*Subscription[[]*models.Transaction])
	for sub, id := range h.txs {
		if _, ok := dirty[id]; ok || all || id == "" {
			txSubs[id] = append(txSubs[id], sub)
		}
	}
	h.mu.Unlock()

	if len(friendSubs) > 0 {
		snapshot, err := h.src.ListFriends(ctx)
		if err != nil {
			h.logger.Error("Failed to load friends snapshot", "error", err)
		} else {
			for _, sub := range friendSubs {
				sub.offer(snapshot)
			}
		}
	}

	for id, subs := range txSubs {
		snapshot, err := h.src.ListTransactions(ctx, storage.TransactionFilter{FriendID: id})
		if err != nil {
			h.logger.Error("Failed to load transactions snapshot", "friend_id", id, "error", err)
			continue
		}
		for _, sub := range subs {
			sub.offer(snapshot)
		}
	}
}

// Close stops delivery and cancels every subscription. Later subscribe calls
// fail with ErrClosed. Changes still pending are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	friendSubs := make([]*Subscription[[]*models.Friend], 0, len(h.friends))
	for sub := range h.friends {
		friendSubs = append(friendSubs, sub)
	}
	txSubs := make([]*Subscription[[]*models.Transaction], 0, len(h.txs))
	for sub := range h.txs {
		txSubs = append(txSubs, sub)
	}
	h.mu.Unlock()

	h.stop()
	<-h.stopped

	for _, sub := range friendSubs {
		sub.Cancel()
	}
	for _, sub := range txSubs {
		sub.Cancel()
	}
}
