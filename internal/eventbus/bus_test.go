package eventbus

import (
	"sync"
	"testing"
	"time"

	model "auctionhub/internal/models"

	"github.com/stretchr/testify/require"
)

// collector is a consumer recording everything it receives.
type collector struct {
	mu     sync.Mutex
	events []model.NotificationEvent
}

func (c *collector) consume(event model.NotificationEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *collector) Events() []model.NotificationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.NotificationEvent(nil), c.events...)
}

func event(listingID int64, amount model.Cents) model.NotificationEvent {
	return model.NotificationEvent{
		ListingID:    listingID,
		ListingTitle: "Listing",
		BidAmount:    amount,
		Bidder:       "alice",
		AcceptedAt:   time.Now().UTC(),
	}
}

// Every subscriber receives every event (fan-out, not competing consumers).
func TestBus_Broadcast(t *testing.T) {
	t.Parallel()

	bus := New()
	first := &collector{}
	second := &collector{}
	bus.Subscribe(first.consume)
	bus.Subscribe(second.consume)

	bus.Publish(event(1, 2000))
	bus.Publish(event(2, 3000))

	// Close drains every mailbox before returning, which makes
	// delivery assertions deterministic.
	bus.Close()

	require.Len(t, first.Events(), 2)
	require.Len(t, second.Events(), 2)
	require.Equal(t, first.Events(), second.Events())
}

// Events for one listing reach a consumer in publish order.
func TestBus_OrderingPerConsumer(t *testing.T) {
	t.Parallel()

	bus := New()
	c := &collector{}
	bus.Subscribe(c.consume)

	for i := 1; i <= 100; i++ {
		bus.Publish(event(7, model.Cents(i*100)))
	}
	bus.Close()

	events := c.Events()
	require.Len(t, events, 100)
	for i := 1; i < len(events); i++ {
		require.Greater(t, events[i].BidAmount, events[i-1].BidAmount, "publish order must be preserved")
	}
}

// A blocked consumer never blocks Publish.
func TestBus_SlowConsumerDoesNotBlockPublisher(t *testing.T) {
	t.Parallel()

	bus := New()
	release := make(chan struct{})
	fast := &collector{}

	bus.Subscribe(func(model.NotificationEvent) {
		<-release // stalled until the test lets go
	})
	bus.Subscribe(fast.consume)

	start := time.Now()
	for i := 0; i < 50; i++ {
		bus.Publish(event(1, model.Cents(i+1)))
	}
	elapsed := time.Since(start)
	require.Less(t, elapsed, 500*time.Millisecond, "publishing must not wait on consumers")

	// the fast consumer drains independently of the stalled one
	require.Eventually(t, func() bool {
		return len(fast.Events()) == 50
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	bus.Close()
}

// A panicking consumer is contained: others are unaffected and the
// panicking consumer keeps receiving later events.
func TestBus_ConsumerPanicIsolated(t *testing.T) {
	t.Parallel()

	bus := New()
	var survived []model.Cents
	var mu sync.Mutex
	healthy := &collector{}

	bus.Subscribe(func(e model.NotificationEvent) {
		if e.BidAmount == 200 {
			panic("consumer bug")
		}
		mu.Lock()
		survived = append(survived, e.BidAmount)
		mu.Unlock()
	})
	bus.Subscribe(healthy.consume)

	bus.Publish(event(1, 100))
	bus.Publish(event(1, 200)) // panics in the first consumer
	bus.Publish(event(1, 300))
	bus.Close()

	require.Len(t, healthy.Events(), 3, "healthy consumer sees every event")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []model.Cents{100, 300}, survived, "panicking consumer resumes with the next event")
}

// Subscribe after Close is ignored and Publish after Close drops events
// without blocking.
func TestBus_CloseSemantics(t *testing.T) {
	t.Parallel()

	bus := New()
	c := &collector{}
	bus.Subscribe(c.consume)

	bus.Publish(event(1, 100))
	bus.Close()
	bus.Close() // second close is harmless

	bus.Subscribe(c.consume)   // ignored
	bus.Publish(event(1, 200)) // dropped

	time.Sleep(20 * time.Millisecond)
	require.Len(t, c.Events(), 1)
}

// Concurrent publishers with concurrent subscribes do not race.
func TestBus_ConcurrentPublish(t *testing.T) {
	t.Parallel()

	bus := New()
	c := &collector{}
	bus.Subscribe(c.consume)

	var wg sync.WaitGroup
	publishers := 10
	perPublisher := 50

	for p := 0; p < publishers; p++ {
		wg.Add(1)
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.Publish(event(int64(p), model.Cents(i+1)))
			}
		}()
	}
	wg.Wait()
	bus.Close()

	events := c.Events()
	require.Len(t, events, publishers*perPublisher)

	// per-listing order is preserved even with interleaved publishers
	lastSeen := make(map[int64]model.Cents)
	for _, e := range events {
		require.Greater(t, e.BidAmount, lastSeen[e.ListingID])
		lastSeen[e.ListingID] = e.BidAmount
	}
}
