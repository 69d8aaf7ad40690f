package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"
	"auctionhub/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, auctionerrors.ErrNotActive):
		return http.StatusConflict, "listing is not active"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid listing details"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for listing"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondRejection sends the rejection with the current highest bid
// attached when the error carries one.
func RespondRejection(c *gin.Context, err error) {
	status, message := MapErrorToHTTP(err)

	var rejection *auctionerrors.BidRejectedError
	if errors.As(err, &rejection) {
		utils.JSONErrorWith(c, status, err, message, map[string]any{
			"current_highest_bid": rejection.CurrentHighest.String(),
		})
		return
	}
	utils.JSONError(c, status, err, message)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// ToListingResponse converts a listing to its response DTO
func ToListingResponse(listing model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:            listing.ID,
		Title:                listing.Title,
		Description:          listing.Description,
		StartingPrice:        listing.StartingPrice.String(),
		MinIncrement:         listing.MinIncrement.String(),
		CurrentHighestBid:    listing.CurrentHighestBid.String(),
		CurrentHighestBidder: listing.CurrentHighestBidder,
		EndTime:              listing.EndTime.UTC().Format(time.RFC3339),
		Status:               string(listing.Status),
		CreatedAt:            listing.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBidResponse converts a bid to its response DTO
func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		ListingID:  bid.ListingID,
		Bidder:     bid.Bidder,
		Amount:     bid.Amount.String(),
		AcceptedAt: bid.AcceptedAt.UTC().Format(time.RFC3339),
		IsWinning:  bid.IsWinning,
	}
}
