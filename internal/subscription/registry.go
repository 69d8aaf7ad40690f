package subscription

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"
	"auctionhub/utils"
)

// ChannelHandle is the opaque push capability supplied by the transport
// layer. The registry only ever sends and closes; connection setup is
// somebody else's problem.
type ChannelHandle interface {
	Send(payload []byte) error
	Close() error
}

// Registry maintains the live per-listing subscriber sets and fans
// accepted-bid events out to them. It is registered as an event bus
// consumer via HandleEvent.
type Registry struct {
	mu          sync.RWMutex
	byListing   map[int64]map[string]ChannelHandle // listingID -> subscriptionID -> handle
	byID        map[string]int64                   // subscriptionID -> listingID
	sendTimeout time.Duration
}

// NewRegistry creates a subscription registry with the given per-handle
// send timeout.
func NewRegistry(sendTimeout time.Duration) *Registry {
	return &Registry{
		byListing:   make(map[int64]map[string]ChannelHandle),
		byID:        make(map[string]int64),
		sendTimeout: sendTimeout,
	}
}

// Subscribe registers a handle for a listing and returns the
// subscription ID used to remove it again.
func (r *Registry) Subscribe(listingID int64, handle ChannelHandle) string {
	subscriptionID := utils.GenerateID()

	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.byListing[listingID]
	if !ok {
		handles = make(map[string]ChannelHandle)
		r.byListing[listingID] = handles
	}
	handles[subscriptionID] = handle
	r.byID[subscriptionID] = listingID

	utils.Info("subscription registered", map[string]any{
		"listing_id":      listingID,
		"subscription_id": subscriptionID,
	})
	return subscriptionID
}

// Unsubscribe removes a subscription. Unknown IDs are a no-op, so the
// transport close callback and the lazy send-failure cleanup can race
// freely.
func (r *Registry) Unsubscribe(subscriptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(subscriptionID)
}

// Count returns the number of live subscriptions for a listing.
func (r *Registry) Count(listingID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byListing[listingID])
}

// HandleEvent is the event bus consumer: serialize once, push to every
// handle subscribed to the event's listing. Sends run concurrently so a
// stalled handle delays nobody else; any handle that fails or exceeds
// the send timeout is dropped and closed.
func (r *Registry) HandleEvent(event model.NotificationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		utils.Error("failed to serialize notification event", map[string]any{
			"listing_id": event.ListingID,
			"error":      err.Error(),
		})
		return
	}

	r.mu.RLock()
	targets := make(map[string]ChannelHandle, len(r.byListing[event.ListingID]))
	for subscriptionID, handle := range r.byListing[event.ListingID] {
		targets[subscriptionID] = handle
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var wg sync.WaitGroup
	for subscriptionID, handle := range targets {
		wg.Add(1)
		go func(subscriptionID string, handle ChannelHandle) {
			defer wg.Done()

			if err := r.sendWithTimeout(handle, payload); err != nil {
				utils.Warn("dropping subscriber after failed delivery", map[string]any{
					"listing_id":      event.ListingID,
					"subscription_id": subscriptionID,
					"error":           err.Error(),
				})
				r.drop(subscriptionID, handle)
			}
		}(subscriptionID, handle)
	}
	// Waiting here keeps per-listing delivery ordered for every handle;
	// the wait is bounded by the send timeout because sends run in
	// parallel.
	wg.Wait()
}

// sendWithTimeout pushes the payload, giving up after the configured
// timeout even if the handle's Send never returns.
func (r *Registry) sendWithTimeout(handle ChannelHandle, payload []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- handle.Send(payload)
	}()

	timer := time.NewTimer(r.sendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", auctionerrors.ErrTransportFailure, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: send timed out after %s", auctionerrors.ErrTransportFailure, r.sendTimeout)
	}
}

// drop removes the subscription and closes its handle.
func (r *Registry) drop(subscriptionID string, handle ChannelHandle) {
	r.mu.Lock()
	r.remove(subscriptionID)
	r.mu.Unlock()

	_ = handle.Close()
}

// remove deletes the subscription from both indexes. Caller holds r.mu.
func (r *Registry) remove(subscriptionID string) {
	listingID, ok := r.byID[subscriptionID]
	if !ok {
		return
	}
	delete(r.byID, subscriptionID)

	handles := r.byListing[listingID]
	delete(handles, subscriptionID)
	if len(handles) == 0 {
		delete(r.byListing, listingID)
	}
}
