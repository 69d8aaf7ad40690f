package helpers

import "time"

// Request/Response DTOs. Monetary amounts travel as decimal strings so
// they can be parsed exactly.

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type CreateListingRequest struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	StartingPrice string    `json:"starting_price" binding:"required"`
	MinIncrement  string    `json:"min_increment" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

type PlaceBidRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type CloseListingRequest struct {
	Reason string `json:"reason" binding:"required,oneof=ENDED CANCELLED"`
}

type ListingResponse struct {
	ListingID            int64  `json:"listing_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	StartingPrice        string `json:"starting_price"`
	MinIncrement         string `json:"min_increment"`
	CurrentHighestBid    string `json:"current_highest_bid"`
	CurrentHighestBidder string `json:"current_highest_bidder,omitempty"`
	EndTime              string `json:"end_time"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
}

type BidResponse struct {
	BidID      string `json:"bid_id"`
	ListingID  int64  `json:"listing_id"`
	Bidder     string `json:"bidder"`
	Amount     string `json:"amount"`
	AcceptedAt string `json:"accepted_at"`
	IsWinning  bool   `json:"is_winning"`
}
