package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create a new ACTIVE listing value
func newListing(title string, startingPrice model.Cents) model.Listing {
	return model.Listing{
		Title:             title,
		Description:       fmt.Sprintf("%s description", title),
		StartingPrice:     startingPrice,
		MinIncrement:      100,
		CurrentHighestBid: startingPrice,
		EndTime:           time.Now().Add(1 * time.Hour),
		Status:            model.StatusActive,
		CreatedAt:         time.Now(),
	}
}

// Test CreateListing
func TestMemoryRepo_CreateListing(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()

	first, err := repo.CreateListing(newListing("Listing 1", 5000))
	require.NoError(t, err)
	second, err := repo.CreateListing(newListing("Listing 2", 7500))
	require.NoError(t, err)

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)

	stored, err := repo.GetListing(first.ID)
	require.NoError(t, err)
	require.Equal(t, first, stored)

	// concurrent creation assigns unique IDs
	t.Run("concurrent_creates", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		var wg sync.WaitGroup
		concurrentCount := 50

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				_, err := repo.CreateListing(newListing(fmt.Sprintf("Listing %d", i), 100))
				require.NoError(t, err)
			}()
		}

		wg.Wait()

		listings, err := repo.ListListings()
		require.NoError(t, err)
		require.Len(t, listings, concurrentCount)

		seen := make(map[int64]bool)
		for _, listing := range listings {
			require.False(t, seen[listing.ID], "duplicate listing ID %d", listing.ID)
			seen[listing.ID] = true
		}
	})
}

// Test GetListing
func TestMemoryRepo_GetListing(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	created, err := repo.CreateListing(newListing("Listing 1", 5000))
	require.NoError(t, err)

	tests := []struct {
		name      string
		listingID int64
		wantError bool
	}{
		{name: "existing_listing", listingID: created.ID},
		{name: "non_existing_listing", listingID: 999, wantError: true},
		{name: "zero_id", listingID: 0, wantError: true},
		{name: "negative_id", listingID: -1, wantError: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			listing, err := repo.GetListing(tc.listingID)
			if tc.wantError {
				require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
			} else {
				require.NoError(t, err)
				require.Equal(t, created, listing)
			}
		})
	}

	// the returned bid log must not alias the stored one
	t.Run("returned_copy_is_isolated", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		listing, err := repo.CreateListing(newListing("Isolated", 100))
		require.NoError(t, err)

		listing.Bids = append(listing.Bids, model.Bid{BidID: "bid1", ListingID: listing.ID, Bidder: "user1", Amount: 300, IsWinning: true})
		require.NoError(t, repo.SaveListing(listing))

		got, err := repo.GetListing(listing.ID)
		require.NoError(t, err)
		got.Bids[0].Bidder = "tampered"
		got.CurrentHighestBid = 999999

		fresh, err := repo.GetListing(listing.ID)
		require.NoError(t, err)
		require.Equal(t, "user1", fresh.Bids[0].Bidder)
		require.Equal(t, model.Cents(100), fresh.CurrentHighestBid)
	})
}

// Test SaveListing
func TestMemoryRepo_SaveListing(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	created, err := repo.CreateListing(newListing("Listing 1", 5000))
	require.NoError(t, err)

	t.Run("updates_existing", func(t *testing.T) {
		updated := created
		updated.Status = model.StatusEnded
		updated.CurrentHighestBid = 9000
		updated.CurrentHighestBidder = "user9"
		require.NoError(t, repo.SaveListing(updated))

		got, err := repo.GetListing(created.ID)
		require.NoError(t, err)
		require.Equal(t, model.StatusEnded, got.Status)
		require.Equal(t, model.Cents(9000), got.CurrentHighestBid)
		require.Equal(t, "user9", got.CurrentHighestBidder)
	})

	t.Run("unknown_listing", func(t *testing.T) {
		missing := newListing("Ghost", 100)
		missing.ID = 12345
		require.ErrorIs(t, repo.SaveListing(missing), auctionerrors.ErrListingNotFound)
	})
}

// Test DeleteListing
func TestMemoryRepo_DeleteListing(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	created, err := repo.CreateListing(newListing("Listing 1", 5000))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteListing(created.ID))
	_, err = repo.GetListing(created.ID)
	require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)

	// second delete fails
	require.ErrorIs(t, repo.DeleteListing(created.ID), auctionerrors.ErrListingNotFound)
}

// Test ListListings
func TestMemoryRepo_ListListings(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()

	listings, err := repo.ListListings()
	require.NoError(t, err)
	require.Empty(t, listings)

	for i := 0; i < 5; i++ {
		_, err := repo.CreateListing(newListing(fmt.Sprintf("Listing %d", i), model.Cents(100*(i+1))))
		require.NoError(t, err)
	}

	listings, err = repo.ListListings()
	require.NoError(t, err)
	require.Len(t, listings, 5)

	// ordered by ID
	for i := 1; i < len(listings); i++ {
		require.Less(t, listings[i-1].ID, listings[i].ID)
	}

	// concurrent reads while writing
	t.Run("concurrent_reads_and_writes", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(2)
			i := i
			go func() {
				defer wg.Done()
				_, err := repo.ListListings()
				require.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				_, err := repo.CreateListing(newListing(fmt.Sprintf("Concurrent %d", i), 100))
				require.NoError(t, err)
			}()
		}
		wg.Wait()
	})
}
