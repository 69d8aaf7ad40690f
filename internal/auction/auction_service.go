package auction

import (
	"fmt"
	"sync"
	"time"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"
	"auctionhub/internal/repository"
	"auctionhub/utils"
)

// Publisher receives the notification event for every committed bid.
type Publisher interface {
	Publish(event model.NotificationEvent)
}

// Service owns all listing mutation. Every write to a listing happens
// inside that listing's critical section, so bid acceptance is strictly
// serialized per listing while different listings proceed in parallel.
type Service struct {
	repo      repository.AuctionDB
	publisher Publisher
	locks     sync.Map // listingID -> *sync.Mutex

	now func() time.Time // overridable in tests
}

// NewService creates a new auction Service instance
func NewService(repo repository.AuctionDB, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateListing validates and stores a new ACTIVE listing. The highest
// bid starts at the asking price, so the first acceptable bid must
// already clear startingPrice + minIncrement.
func (s *Service) CreateListing(title, description string, startingPrice, minIncrement model.Cents, endTime time.Time) (model.Listing, error) {
	if title == "" {
		return model.Listing{}, fmt.Errorf("service: %w - missing title", auctionerrors.ErrInvalidListing)
	}
	if startingPrice < 0 || minIncrement < 0 {
		return model.Listing{}, fmt.Errorf("service: %w - negative price or increment", auctionerrors.ErrInvalidListing)
	}
	if !endTime.After(s.now()) {
		return model.Listing{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.CreateListing(model.Listing{
		Title:             title,
		Description:       description,
		StartingPrice:     startingPrice,
		MinIncrement:      minIncrement,
		CurrentHighestBid: startingPrice,
		EndTime:           endTime.UTC(),
		Status:            model.StatusActive,
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to create listing %q: %w", title, err)
	}

	return listing, nil
}

// PlaceBid validates and records a bid for a listing. The
// read-validate-mutate-save sequence runs inside the listing's critical
// section; the notification event is published only after the mutation
// has committed and the lock is released.
func (s *Service) PlaceBid(listingID int64, bidder string, amount model.Cents) (model.Bid, error) {
	if bidder == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing bidder", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	mu := s.lockFor(listingID)
	mu.Lock()
	bid, event, err := s.applyBid(listingID, bidder, amount)
	mu.Unlock()

	if err != nil {
		return model.Bid{}, err
	}

	s.publisher.Publish(event)
	return bid, nil
}

// applyBid runs inside the per-listing critical section. No I/O beyond
// the repository round-trip happens while the lock is held.
func (s *Service) applyBid(listingID int64, bidder string, amount model.Cents) (model.Bid, model.NotificationEvent, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return model.Bid{}, model.NotificationEvent{}, fmt.Errorf("service: place bid on listing %d: %w", listingID, err)
	}

	now := s.now().UTC()
	if listing.Status != model.StatusActive || !now.Before(listing.EndTime) {
		return model.Bid{}, model.NotificationEvent{}, fmt.Errorf("service: place bid on listing %d: %w", listingID,
			&auctionerrors.BidRejectedError{Reason: auctionerrors.ErrNotActive, CurrentHighest: listing.CurrentHighestBid})
	}

	// Strict threshold: a bid equal to highest+increment is too low.
	if amount <= listing.CurrentHighestBid+listing.MinIncrement {
		return model.Bid{}, model.NotificationEvent{}, fmt.Errorf("service: place bid on listing %d: %w", listingID,
			&auctionerrors.BidRejectedError{Reason: auctionerrors.ErrBidTooLow, CurrentHighest: listing.CurrentHighestBid})
	}

	for i := range listing.Bids {
		listing.Bids[i].IsWinning = false
	}
	bid := model.Bid{
		BidID:      utils.GenerateID(),
		ListingID:  listingID,
		Bidder:     bidder,
		Amount:     amount,
		AcceptedAt: now,
		IsWinning:  true,
	}
	listing.Bids = append(listing.Bids, bid)
	listing.CurrentHighestBid = amount
	listing.CurrentHighestBidder = bidder

	if err := s.repo.SaveListing(listing); err != nil {
		return model.Bid{}, model.NotificationEvent{}, fmt.Errorf("service: failed to record bid on listing %d by %s: %w", listingID, bidder, err)
	}

	event := model.NotificationEvent{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		BidAmount:    amount,
		Bidder:       bidder,
		AcceptedAt:   now,
	}
	return bid, event, nil
}

// CloseAuction transitions a listing to the given terminal status. It is
// idempotent: a listing that is already terminal is returned unchanged,
// whatever the requested reason. The winner snapshot is whatever the
// listing's highest bid was at transition time.
func (s *Service) CloseAuction(listingID int64, reason model.ListingStatus) (model.Listing, error) {
	if !reason.Terminal() {
		return model.Listing{}, fmt.Errorf("service: %w - close reason must be ENDED, CANCELLED or EXPIRED", auctionerrors.ErrInvalidListing)
	}

	mu := s.lockFor(listingID)
	mu.Lock()
	defer mu.Unlock()

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: close listing %d: %w", listingID, err)
	}

	if listing.Status.Terminal() {
		return listing, nil
	}

	listing.Status = reason
	if err := s.repo.SaveListing(listing); err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to close listing %d: %w", listingID, err)
	}

	utils.Info("listing closed", map[string]any{
		"listing_id": listing.ID,
		"status":     string(listing.Status),
		"winner":     listing.CurrentHighestBidder,
		"amount":     listing.CurrentHighestBid.String(),
	})
	return listing, nil
}

// GetListing returns the current state of a listing
func (s *Service) GetListing(listingID int64) (model.Listing, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to get listing %d: %w", listingID, err)
	}
	return listing, nil
}

// ListListings returns all listings
func (s *Service) ListListings() ([]model.Listing, error) {
	listings, err := s.repo.ListListings()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}

// GetBidsForListing returns the ordered bid log for a listing
func (s *Service) GetBidsForListing(listingID int64) ([]model.Bid, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %d: %w", listingID, err)
	}
	return listing.Bids, nil
}

// GetWinningBid returns the winning bid for a listing
func (s *Service) GetWinningBid(listingID int64) (model.Bid, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %d: %w", listingID, err)
	}

	for _, bid := range listing.Bids {
		if bid.IsWinning {
			return bid, nil
		}
	}
	return model.Bid{}, fmt.Errorf("service: winning bid for listing %d: %w", listingID, auctionerrors.ErrNoBids)
}

// ExpireOverdue force-closes every ACTIVE listing whose end time has
// passed. A failure on one listing is logged and does not stop the rest;
// the number of listings expired is returned.
func (s *Service) ExpireOverdue() (int, error) {
	listings, err := s.repo.ListListings()
	if err != nil {
		return 0, fmt.Errorf("service: failed to enumerate listings for expiry: %w", err)
	}

	now := s.now().UTC()
	expired := 0
	for _, listing := range listings {
		if listing.Status != model.StatusActive || now.Before(listing.EndTime) {
			continue
		}
		if _, err := s.CloseAuction(listing.ID, model.StatusExpired); err != nil {
			// Isolated per listing: log and keep sweeping.
			utils.Error("failed to expire listing", map[string]any{
				"listing_id": listing.ID,
				"error":      err.Error(),
			})
			continue
		}
		expired++
	}
	return expired, nil
}

// lockFor returns the mutex serializing mutation of one listing.
func (s *Service) lockFor(listingID int64) *sync.Mutex {
	if mu, ok := s.locks.Load(listingID); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := s.locks.LoadOrStore(listingID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
