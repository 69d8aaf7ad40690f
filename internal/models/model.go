package models

import "time"

// ListingStatus is the lifecycle state of a listing. ACTIVE is the only
// non-terminal state; every transition out of ACTIVE is final.
type ListingStatus string

const (
	StatusActive    ListingStatus = "ACTIVE"
	StatusEnded     ListingStatus = "ENDED"
	StatusCancelled ListingStatus = "CANCELLED"
	StatusExpired   ListingStatus = "EXPIRED"
)

// Terminal reports whether the status forbids further mutation.
func (s ListingStatus) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled || s == StatusExpired
}

// Listing represents an auction listing with its bid history
type Listing struct {
	ID                   int64         `json:"listing_id"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	StartingPrice        Cents         `json:"starting_price"`
	MinIncrement         Cents         `json:"min_increment"`
	CurrentHighestBid    Cents         `json:"current_highest_bid"`
	CurrentHighestBidder string        `json:"current_highest_bidder,omitempty"`
	EndTime              time.Time     `json:"end_time"`
	Status               ListingStatus `json:"status"`
	Bids                 []Bid         `json:"-"`
	CreatedAt            time.Time     `json:"created_at"`
}

// Bid represents an accepted bid on a listing
type Bid struct {
	BidID      string    `json:"bid_id"`
	ListingID  int64     `json:"listing_id"`
	Bidder     string    `json:"bidder"`
	Amount     Cents     `json:"amount"`
	AcceptedAt time.Time `json:"accepted_at"`
	IsWinning  bool      `json:"is_winning"`
}

// Session binds an opaque token to an authenticated identity
type Session struct {
	Token           string    `json:"-"`
	Username        string    `json:"username"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivity    time.Time `json:"last_activity"`
	Origin          string    `json:"-"`
	ClientSignature string    `json:"-"`
}

// NotificationEvent is the immutable payload published once per accepted bid
type NotificationEvent struct {
	ListingID    int64     `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	BidAmount    Cents     `json:"bid_amount"`
	Bidder       string    `json:"bidder"`
	AcceptedAt   time.Time `json:"accepted_at"`
}
