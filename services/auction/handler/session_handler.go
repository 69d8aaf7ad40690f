package handler

import (
	"net/http"

	"auctionhub/internal/session"
	"auctionhub/services/auction/helpers"
	"auctionhub/utils"

	"github.com/gin-gonic/gin"
)

// SessionRegistryInterface is the slice of the session registry the
// handlers need. Identity verification happens upstream; login here
// receives an already authenticated username.
type SessionRegistryInterface interface {
	Create(username string, meta session.Metadata) string
	Invalidate(token string)
	InvalidateAll(username string) int
}

type SessionHandler struct {
	sessions SessionRegistryInterface
}

func NewSessionHandler(sessions SessionRegistryInterface) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// LoginHandler handles POST /auth/login
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token := h.sessions.Create(req.Username, session.Metadata{
		Origin:          c.ClientIP(),
		ClientSignature: c.Request.UserAgent(),
	})

	utils.JSONResponse(c, http.StatusCreated, helpers.LoginResponse{
		Token:    token,
		Username: req.Username,
	}, "session created")
	helpers.LogSuccess("LoginHandler", "session created", map[string]any{
		"username": req.Username,
	})
}

// LogoutHandler handles POST /auth/logout
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	token := c.GetString(helpers.ContextToken)
	h.sessions.Invalidate(token)

	utils.JSONResponse(c, http.StatusOK, nil, "session invalidated")
	helpers.LogSuccess("LogoutHandler", "session invalidated", map[string]any{
		"username": c.GetString(helpers.ContextUsername),
	})
}

// LogoutAllHandler handles POST /auth/logout_all
func (h *SessionHandler) LogoutAllHandler(c *gin.Context) {
	username := c.GetString(helpers.ContextUsername)
	removed := h.sessions.InvalidateAll(username)

	utils.JSONResponse(c, http.StatusOK, gin.H{"sessions_removed": removed}, "all sessions invalidated")
	helpers.LogSuccess("LogoutAllHandler", "all sessions invalidated", map[string]any{
		"username": username,
		"removed":  removed,
	})
}
