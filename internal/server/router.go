package server

import (
	"time"

	"auctionhub/internal/session"
	"auctionhub/internal/subscription"
	handler "auctionhub/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, sessions *session.Registry, subscriptions *subscription.Registry, writeTimeout time.Duration) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService, subscriptions, writeTimeout)
	sessionHandler := handler.NewSessionHandler(sessions)
	authenticated := AuthMiddleware(sessions)

	auth := router.Group("/auth")
	{
		auth.POST("/login", sessionHandler.LoginHandler)
		auth.POST("/logout", authenticated, sessionHandler.LogoutHandler)
		auth.POST("/logout_all", authenticated, sessionHandler.LogoutAllHandler)
	}

	listings := router.Group("/listings")
	{
		listings.GET("", auctionHandler.ListListingsHandler)
		listings.POST("", authenticated, auctionHandler.CreateListingHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.GET("/:listing_id/bids", auctionHandler.GetBidsHandler)
		listings.GET("/:listing_id/winning", auctionHandler.GetWinningBidHandler)
		listings.POST("/:listing_id/bids", authenticated, auctionHandler.PlaceBidHandler)
		listings.POST("/:listing_id/close", authenticated, auctionHandler.CloseListingHandler)
		listings.GET("/:listing_id/live", auctionHandler.LiveUpdatesHandler)
	}

	return router
}
