package repository

import (
	"fmt"
	"sort"
	"sync"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"
)

// AuctionDB defines the listing storage interface for the auction engine.
// Implementations only store and retrieve; all listing mutation decisions
// happen inside the bid processor's per-listing critical section, so a
// durable implementation can be swapped in without engine changes.
type AuctionDB interface {
	CreateListing(listing model.Listing) (model.Listing, error)
	GetListing(listingID int64) (model.Listing, error)
	SaveListing(listing model.Listing) error
	DeleteListing(listingID int64) error
	ListListings() ([]model.Listing, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	listings map[int64]model.Listing // key: listingID -> value: listing
	nextID   int64
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings: make(map[int64]model.Listing),
	}
}

// CreateListing stores a new listing and assigns its ID
func (r *MemoryRepo) CreateListing(listing model.Listing) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	listing.ID = r.nextID
	r.listings[listing.ID] = copyListing(listing)

	return listing, nil
}

// GetListing returns a copy of the listing; callers never share the
// stored bid log.
func (r *MemoryRepo) GetListing(listingID int64) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %d: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return copyListing(listing), nil
}

// SaveListing replaces the stored state of an existing listing
func (r *MemoryRepo) SaveListing(listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listing.ID]; !ok {
		return fmt.Errorf("save listing %d: %w", listing.ID, auctionerrors.ErrListingNotFound)
	}
	r.listings[listing.ID] = copyListing(listing)

	return nil
}

// DeleteListing removes a listing
func (r *MemoryRepo) DeleteListing(listingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listingID]; !ok {
		return fmt.Errorf("delete listing %d: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	delete(r.listings, listingID)

	return nil
}

// ListListings returns copies of all listings ordered by ID
func (r *MemoryRepo) ListListings() ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0, len(r.listings))
	for _, listing := range r.listings {
		listings = append(listings, copyListing(listing))
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })

	return listings, nil
}

// copyListing returns a listing value whose bid log does not alias the
// stored slice.
func copyListing(listing model.Listing) model.Listing {
	listing.Bids = append([]model.Bid(nil), listing.Bids...)
	return listing
}
