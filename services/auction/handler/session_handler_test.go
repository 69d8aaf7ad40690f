package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"auctionhub/internal/session"
	"auctionhub/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeSessions records registry calls made by the handlers.
type fakeSessions struct {
	createdUser string
	createdMeta session.Metadata
	invalidated []string
	removedAll  []string
}

func (f *fakeSessions) Create(username string, meta session.Metadata) string {
	f.createdUser = username
	f.createdMeta = meta
	return "test-token"
}

func (f *fakeSessions) Invalidate(token string) {
	f.invalidated = append(f.invalidated, token)
}

func (f *fakeSessions) InvalidateAll(username string) int {
	f.removedAll = append(f.removedAll, username)
	return 2
}

func TestLoginHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		sessions := &fakeSessions{}
		router := gin.New()
		router.POST("/auth/login", NewSessionHandler(sessions).LoginHandler)

		body, _ := json.Marshal(helpers.LoginRequest{Username: "alice"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "test-agent")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "alice", sessions.createdUser)
		require.Equal(t, "test-agent", sessions.createdMeta.ClientSignature)
		require.NotEmpty(t, sessions.createdMeta.Origin)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp["data"].(map[string]any)
		require.Equal(t, "test-token", data["token"])
		require.Equal(t, "alice", data["username"])
	})

	t.Run("missing_username", func(t *testing.T) {
		sessions := &fakeSessions{}
		router := gin.New()
		router.POST("/auth/login", NewSessionHandler(sessions).LoginHandler)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, sessions.createdUser)
	})
}

func TestLogoutHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions := &fakeSessions{}
	h := NewSessionHandler(sessions)

	router := gin.New()
	// stand-in for the auth middleware
	router.Use(func(c *gin.Context) {
		c.Set(helpers.ContextUsername, "alice")
		c.Set(helpers.ContextToken, "token-123")
		c.Next()
	})
	router.POST("/auth/logout", h.LogoutHandler)
	router.POST("/auth/logout_all", h.LogoutAllHandler)

	t.Run("logout_invalidates_current_token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []string{"token-123"}, sessions.invalidated)
	})

	t.Run("logout_all_removes_every_session", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout_all", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []string{"alice"}, sessions.removedAll)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp["data"].(map[string]any)
		require.Equal(t, float64(2), data["sessions_removed"])
	})
}
