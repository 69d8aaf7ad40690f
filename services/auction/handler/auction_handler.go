package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auctionhub/internal/auctionerrors"
	model "auctionhub/internal/models"
	"auctionhub/internal/subscription"
	"auctionhub/internal/transport"
	"auctionhub/services/auction/helpers"
	"auctionhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type AuctionServiceInterface interface {
	CreateListing(title, description string, startingPrice, minIncrement model.Cents, endTime time.Time) (model.Listing, error)
	PlaceBid(listingID int64, bidder string, amount model.Cents) (model.Bid, error)
	CloseAuction(listingID int64, reason model.ListingStatus) (model.Listing, error)
	GetListing(listingID int64) (model.Listing, error)
	ListListings() ([]model.Listing, error)
	GetBidsForListing(listingID int64) ([]model.Bid, error)
	GetWinningBid(listingID int64) (model.Bid, error)
}

type AuctionHandler struct {
	service       AuctionServiceInterface
	subscriptions *subscription.Registry
	writeTimeout  time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy belongs to the surrounding deployment, not the engine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewAuctionHandler(service AuctionServiceInterface, subscriptions *subscription.Registry, writeTimeout time.Duration) *AuctionHandler {
	return &AuctionHandler{
		service:       service,
		subscriptions: subscriptions,
		writeTimeout:  writeTimeout,
	}
}

// CreateListingHandler handles POST /listings
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	startingPrice, err := model.ParseCents(req.StartingPrice)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err, "invalid starting price")
		return
	}
	minIncrement, err := model.ParseCents(req.MinIncrement)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err, "invalid minimum increment")
		return
	}

	listing, err := h.service.CreateListing(req.Title, req.Description, startingPrice, minIncrement, req.EndTime)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateListingHandler: failed to create listing", map[string]any{
			"title": req.Title,
			"error": err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToListingResponse(listing), "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id": listing.ID,
		"title":      listing.Title,
		"end_time":   listing.EndTime,
	})
}

// PlaceBidHandler handles POST /listings/:listing_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	amount, err := model.ParseCents(req.Amount)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err, "invalid bid amount")
		return
	}

	bidder := c.GetString(helpers.ContextUsername)

	bid, err := h.service.PlaceBid(listingID, bidder, amount)
	if err != nil {
		helpers.RespondRejection(c, err)
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"listing_id": listingID,
			"bidder":     bidder,
			"amount":     amount.String(),
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": listingID,
		"bidder":     bidder,
		"amount":     bid.Amount.String(),
	})
}

// CloseListingHandler handles POST /listings/:listing_id/close
func (h *AuctionHandler) CloseListingHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req helpers.CloseListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CloseListingHandler", err)
		return
	}

	listing, err := h.service.CloseAuction(listingID, model.ListingStatus(req.Reason))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CloseListingHandler: failed to close listing", map[string]any{
			"listing_id": listingID,
			"reason":     req.Reason,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponse(listing), "listing closed")
	helpers.LogSuccess("CloseListingHandler", "listing closed", map[string]any{
		"listing_id": listing.ID,
		"status":     string(listing.Status),
	})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.service.GetListing(listingID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponse(listing), "listing retrieved successfully")
}

// ListListingsHandler handles GET /listings
func (h *AuctionHandler) ListListingsHandler(c *gin.Context) {
	listings, err := h.service.ListListings()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	responses := make([]helpers.ListingResponse, 0, len(listings))
	for _, listing := range listings {
		responses = append(responses, helpers.ToListingResponse(listing))
	}

	utils.JSONResponse(c, http.StatusOK, responses, "listings retrieved successfully")
}

// GetBidsHandler handles GET /listings/:listing_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	bids, err := h.service.GetBidsForListing(listingID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	responses := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		responses = append(responses, helpers.ToBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, responses, "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /listings/:listing_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	bid, err := h.service.GetWinningBid(listingID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
}

// LiveUpdatesHandler handles GET /listings/:listing_id/live. It upgrades
// the connection, wraps it in a channel handle and subscribes it to the
// listing's accepted-bid events until the client disconnects.
func (h *AuctionHandler) LiveUpdatesHandler(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	// Reject before upgrading so unknown listings get a proper status.
	if _, err := h.service.GetListing(listingID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("LiveUpdatesHandler: websocket upgrade failed", map[string]any{
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return
	}

	handle := transport.NewWebsocketHandle(conn, h.writeTimeout)
	subscriptionID := h.subscriptions.Subscribe(listingID, handle)
	handle.OnClose(func() {
		h.subscriptions.Unsubscribe(subscriptionID)
	})

	helpers.LogSuccess("LiveUpdatesHandler", "subscriber connected", map[string]any{
		"listing_id":      listingID,
		"subscription_id": subscriptionID,
	})

	handle.ReadLoop()
}

// listingIDParam parses the :listing_id path parameter, responding with
// 400 on garbage.
func listingIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("listing_id")
	listingID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid listing id %q", raw), "invalid listing id")
		return 0, false
	}
	return listingID, true
}
