package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

type fakeSource struct {
	mu      sync.Mutex
	friends []*models.Friend
	txs     []*models.Transaction
}

func (f *fakeSource) ListFriends(_ context.Context) ([]*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Friend(nil), f.friends...), nil
}

func (f *fakeSource) ListTransactions(_ context.Context, filter storage.TransactionFilter) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range f.txs {
		if filter.FriendID == "" || tx.FriendID == filter.FriendID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeSource) addFriend(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends = append(f.friends, &models.Friend{ID: id, Name: id})
}

func (f *fakeSource) addTx(id, friendID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, &models.Transaction{ID: id, FriendID: friendID})
}

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		require.True(t, ok, "subscription channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case v := <-sub.C():
		t.Fatalf("unexpected snapshot: %v", v)
	default:
	}
}

func TestHub_SnapshotOnSubscribe(t *testing.T) {
	src := &fakeSource{}
	src.addFriend("alice")
	hub := NewHub(src, nil)
	defer hub.Close()
	ctx := context.Background()

	sub, err := hub.SubscribeFriends(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	friends := receive(t, sub)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].ID)
}

func TestHub_PublishScopesTransactions(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, nil)
	ctx := context.Background()

	defer hub.Close()

	alice, err := hub.SubscribeTransactions(ctx, "alice")
	require.NoError(t, err)
	bob, err := hub.SubscribeTransactions(ctx, "bob")
	require.NoError(t, err)
	all, err := hub.SubscribeTransactions(ctx, "")
	require.NoError(t, err)
	receive(t, alice)
	receive(t, bob)
	receive(t, all)

	src.addTx("t1", "alice")
	hub.Publish(ctx, "alice")

	got := receive(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	assert.Len(t, receive(t, all), 1)
	assertEmpty(t, bob)
}

func TestSubscription_KeepsLatest(t *testing.T) {
	sub := newSubscription[int]()

	// Nobody reads while three values land.
	sub.offer(1)
	sub.offer(2)
	sub.offer(3)

	assert.Equal(t, 3, receive(t, sub))
	assertEmpty(t, sub)
}

func TestHub_SlowSubscriberCatchesUp(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, nil)
	defer hub.Close()
	ctx := context.Background()

	sub, err := hub.SubscribeFriends(ctx)
	require.NoError(t, err)
	receive(t, sub)

	for _, id := range []string{"a", "b", "c"} {
		src.addFriend(id)
		hub.Publish(ctx, id)
	}

	// Deliveries may be folded together; the last one carries every change.
	for {
		if friends := receive(t, sub); len(friends) == 3 {
			break
		}
	}
}

// gatedSource blocks ListFriends while the gate is set.
type gatedSource struct {
	fakeSource
	gate chan struct{}
}

func (g *gatedSource) ListFriends(ctx context.Context) ([]*models.Friend, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return g.fakeSource.ListFriends(ctx)
}

func TestHub_PublishDoesNotWaitForReload(t *testing.T) {
	src := &gatedSource{}
	hub := NewHub(src, nil)
	ctx := context.Background()

	sub, err := hub.SubscribeFriends(ctx)
	require.NoError(t, err)
	receive(t, sub)

	gate := make(chan struct{})
	src.mu.Lock()
	src.gate = gate
	src.mu.Unlock()

	done := make(chan struct{})
	go func() {
		src.addFriend("a")
		hub.Publish(ctx, "a")
		hub.Publish(ctx, "a")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow snapshot load")
	}

	close(gate)
	friends := receive(t, sub)
	assert.Len(t, friends, 1)

	hub.Close()
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, nil)
	defer hub.Close()
	ctx := context.Background()

	sub, err := hub.SubscribeFriends(ctx)
	require.NoError(t, err)
	receive(t, sub)

	sub.Cancel()
	sub.Cancel()

	src.addFriend("late")
	hub.Publish(ctx, "late")

	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed after cancel")

	hub.mu.Lock()
	assert.Empty(t, hub.friends)
	hub.mu.Unlock()
}

func TestHub_Close(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, nil)
	ctx := context.Background()

	sub, err := hub.SubscribeTransactions(ctx, "")
	require.NoError(t, err)
	receive(t, sub)

	hub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	_, err = hub.SubscribeFriends(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
