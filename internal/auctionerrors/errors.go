package auctionerrors

import (
	"errors"
	"fmt"

	model "auctionhub/internal/models"
)

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNoBids          = errors.New("no bids found for listing")
)

// business logic errors
var (
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidBid     = errors.New("invalid bid")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrNotActive      = errors.New("listing is not active")
)

// session errors
var (
	ErrInvalidSession = errors.New("invalid or expired session")
)

// transport errors
var (
	ErrTransportFailure = errors.New("push delivery failed")
)

// BidRejectedError carries the highest bid at rejection time so callers
// can explain why a bid was refused. It wraps one of the sentinel errors
// above, so errors.Is still matches the underlying reason.
type BidRejectedError struct {
	Reason         error
	CurrentHighest model.Cents
}

func (e *BidRejectedError) Error() string {
	return fmt.Sprintf("%v (current highest bid is %s)", e.Reason, e.CurrentHighest)
}

func (e *BidRejectedError) Unwrap() error {
	return e.Reason
}
