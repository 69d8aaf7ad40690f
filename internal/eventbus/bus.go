package eventbus

import (
	"fmt"
	"sync"

	model "auctionhub/internal/models"
	"auctionhub/utils"
)

// Bus is an in-process broadcast channel between the bid processor and
// notification consumers. Every subscriber receives every published
// event; each subscriber is driven by its own dispatch goroutine fed
// from a private FIFO, so publish order is preserved per subscriber and
// Publish returns without waiting on any of them.
type Bus struct {
	mu        sync.RWMutex
	consumers []*consumer
	closed    bool

	wg sync.WaitGroup
}

type consumer struct {
	fn      func(model.NotificationEvent)
	mailbox *queue[model.NotificationEvent]
}

// New creates a new event bus
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a broadcast consumer and starts its dispatcher.
// Registration after Close is a no-op.
func (b *Bus) Subscribe(fn func(model.NotificationEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	c := &consumer{fn: fn, mailbox: newQueue[model.NotificationEvent]()}
	b.consumers = append(b.consumers, c)

	b.wg.Add(1)
	go b.dispatch(c)
}

// Publish hands the event to every registered consumer and returns
// immediately. A slow or failing consumer never blocks or fails the
// publisher.
func (b *Bus) Publish(event model.NotificationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, c := range b.consumers {
		c.mailbox.Send(event)
	}
}

// Close stops accepting events, lets every consumer drain its mailbox
// and waits for the dispatchers to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	consumers := b.consumers
	b.mu.Unlock()

	for _, c := range consumers {
		c.mailbox.Close()
	}
	b.wg.Wait()
}

// dispatch is a consumer's delivery goroutine.
func (b *Bus) dispatch(c *consumer) {
	defer b.wg.Done()

	for {
		event, ok := c.mailbox.Receive()
		if !ok {
			return
		}
		b.deliver(c, event)
	}
}

// deliver invokes one consumer for one event. A panic inside the
// consumer is contained here and does not affect other consumers or
// later deliveries.
func (b *Bus) deliver(c *consumer, event model.NotificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("eventbus: consumer panicked", map[string]any{
				"listing_id": event.ListingID,
				"panic":      fmt.Sprintf("%v", r),
			})
		}
	}()

	c.fn(event)
}
