package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auctionhub/internal/auction"
	"auctionhub/internal/eventbus"
	"auctionhub/internal/repository"
	"auctionhub/internal/server"
	"auctionhub/internal/session"
	"auctionhub/internal/subscription"
	"auctionhub/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testEnv is a fully wired engine backed by in-memory storage, the same
// wiring main uses minus the listener.
type testEnv struct {
	router        *gin.Engine
	bus           *eventbus.Bus
	subscriptions *subscription.Registry
	sessions      *session.Registry
	service       *auction.Service
}

// SetupTestEnv builds the full stack for integration testing.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	bus := eventbus.New()
	service := auction.NewService(repo, bus)
	sessions := session.NewRegistry(30 * time.Minute)
	subscriptions := subscription.NewRegistry(1 * time.Second)
	bus.Subscribe(subscriptions.HandleEvent)

	t.Cleanup(bus.Close)

	return &testEnv{
		router:        server.SetupRouter(service, sessions, subscriptions, time.Second),
		bus:           bus,
		subscriptions: subscriptions,
		sessions:      sessions,
		service:       service,
	}
}

// Login creates a session through the API and returns the bearer token.
func (env *testEnv) Login(t *testing.T, username string) string {
	t.Helper()

	resp, w := env.Request(t, http.MethodPost, "/auth/login", helpers.LoginRequest{Username: username}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	return data["token"].(string)
}

// Request executes one JSON request against the router, optionally
// authenticated, and parses the response body.
func (env *testEnv) Request(t *testing.T, method, url string, body any, token string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// CreateListing creates a listing through the API and returns its ID.
func (env *testEnv) CreateListing(t *testing.T, token string, req helpers.CreateListingRequest) int64 {
	t.Helper()

	resp, w := env.Request(t, http.MethodPost, "/listings", req, token)
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	return int64(data["listing_id"].(float64))
}
